package shape

import (
	"fmt"

	"go.uber.org/zap"

	"consolenav/internal/common/fields"
	"consolenav/internal/util/jsonutil"
)

// Page is one page of a paginated listing.
type Page struct {
	Items []any `json:"items"`
	Total int   `json:"total"`
}

var pageFields = []string{"items", "list", "records"}

// ExtractPagination returns {items, total}. The total is taken from a numeric
// "total" next to the items and otherwise defaults to the item count.
// PreferredFields names are tried after list/records.
func ExtractPagination(value any, opts ...Option) (Page, error) {
	o := buildOptions(opts)
	page, rule, ok := extractPagination(value, o)
	if !ok {
		o.logger.Debug("shape: no page found", zap.String("type", fmt.Sprintf("%T", value)))
		return Page{}, &DataShapeError{Op: "extract pagination", Reason: "cannot extract pagination"}
	}
	o.logger.Debug("shape: page extracted", zap.String("rule", rule), zap.Int("items", len(page.Items)), zap.Int("total", page.Total))
	return page, nil
}

func extractPagination(value any, o options) (Page, string, bool) {
	if arr, ok := jsonutil.AsArray(value); ok {
		return Page{Items: arr, Total: len(arr)}, "sequence", true
	}
	rec, ok := jsonutil.AsRecord(value)
	if !ok {
		return Page{}, "", false
	}
	if items, ok := arrayAt(rec, "items"); ok {
		return newPage(items, rec), "items", true
	}

	if data, ok := rec.Get("data"); ok {
		if arr, ok := jsonutil.AsArray(data); ok {
			return newPage(arr, rec), "data", true
		}
		if inner, ok := jsonutil.AsRecord(data); ok {
			for _, name := range append(append([]string(nil), pageFields...), o.preferred...) {
				if items, ok := arrayAt(inner, name); ok {
					return newPage(items, inner), "data." + name, true
				}
			}
		}
	}

	for _, name := range append([]string{"list", "records"}, o.preferred...) {
		if items, ok := arrayAt(rec, name); ok {
			return newPage(items, rec), name, true
		}
	}

	for _, k := range propertyOrder(rec.Keys()) {
		if items, ok := arrayAt(rec, k); ok {
			return newPage(items, rec), "scan:" + k, true
		}
	}
	return Page{}, "", false
}

func arrayAt(rec jsonutil.Record, key string) ([]any, bool) {
	v, ok := rec.Get(key)
	if !ok {
		return nil, false
	}
	return jsonutil.AsArray(v)
}

func newPage(items []any, holder jsonutil.Record) Page {
	total := len(items)
	if v, ok := holder.Get("total"); ok && fields.IsNumber(v) {
		if n, ok := fields.Number(v); ok {
			total = int(n)
		}
	}
	return Page{Items: items, Total: total}
}
