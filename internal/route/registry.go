package route

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// LayoutIdentifier names the shared chrome container. As a leaf component it
	// resolves to the not-found view.
	LayoutIdentifier   = "Layout"
	NotFoundIdentifier = "error/404"
)

// Registry maps component identifiers to view loader references.
type Registry struct {
	Layout     string            `yaml:"layout" json:"layout"`
	NotFound   string            `yaml:"notFound" json:"notFound"`
	Components map[string]string `yaml:"components" json:"components"`
}

// DefaultRegistry lists the views the console ships with.
func DefaultRegistry() *Registry {
	return &Registry{
		Layout:   "layout/index.vue",
		NotFound: "views/error/404.vue",
		Components: map[string]string{
			"dashboard/index":            "views/dashboard/index.vue",
			"product/index":              "views/product/index.vue",
			"product/productList":        "views/product/ProductList.vue",
			"product/productInfo":        "views/product/ProductInfo.vue",
			"product/productFactory":     "views/product/ProductFactory.vue",
			"order/index":                "views/order/index.vue",
			"order/orderList":            "views/order/OrderList.vue",
			"customer/index":             "views/customer/index.vue",
			"customer/customerSearch":    "views/customer/CustomerSearch.vue",
			"customer/customerInfo":      "views/customer/CustomerInfo.vue",
			"customer/customerTrack":     "views/customer/CustomerTrack.vue",
			"quotation/quotationList":    "views/quotation/QuotationList.vue",
			"system/users":               "views/system/user/index.vue",
			"system/roles":               "views/system/role/index.vue",
			"system/permissions":         "views/system/permission/index.vue",
			"super-admin/index":          "views/super-admin/index.vue",
			"super-admin/dashboard":      "views/super-admin/dashboard.vue",
			"super-admin/monitor":        "views/super-admin/monitor.vue",
			"super-admin/backup":         "views/super-admin/backup.vue",
			"super-admin/config":         "views/super-admin/config.vue",
			"super-admin/logs":           "views/super-admin/logs.vue",
			NotFoundIdentifier:           "views/error/404.vue",
			"test/TestPage":              "views/test/TestPage.vue",
		},
	}
}

// Resolve returns the loader for id. Empty, unknown and Layout identifiers
// resolve to the not-found view.
func (r *Registry) Resolve(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || id == LayoutIdentifier {
		return r.NotFound
	}
	if loader, ok := r.Components[id]; ok && loader != "" {
		return loader
	}
	return r.NotFound
}

// Known reports whether id maps to a registered view.
func (r *Registry) Known(id string) bool {
	_, ok := r.Components[strings.TrimSpace(id)]
	return ok
}

// LoadRegistry reads a YAML registry file. Missing layout or notFound entries
// fall back to the defaults.
func LoadRegistry(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return ParseRegistry(raw)
}

func ParseRegistry(raw []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(raw, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	def := DefaultRegistry()
	if strings.TrimSpace(reg.Layout) == "" {
		reg.Layout = def.Layout
	}
	if strings.TrimSpace(reg.NotFound) == "" {
		reg.NotFound = def.NotFound
	}
	if reg.Components == nil {
		reg.Components = map[string]string{}
	}
	return &reg, nil
}
