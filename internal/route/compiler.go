// Package route compiles a menu tree into router route definitions.
package route

import (
	"sync"

	"consolenav/internal/menu"
)

// Definition is one router entry.
type Definition struct {
	Path      string         `json:"path"`
	Name      string         `json:"name"`
	Component string         `json:"component"`
	Redirect  string         `json:"redirect,omitempty"`
	Meta      map[string]any `json:"meta"`
	Children  []Definition   `json:"children,omitempty"`
}

// CatchAllPath matches any path the dynamic routes did not claim.
const CatchAllPath = "/:pathMatch(.*)*"

type Compiler struct {
	mu  sync.RWMutex
	reg *Registry
}

func NewCompiler(reg *Registry) *Compiler {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Compiler{reg: reg}
}

// SetRegistry swaps the component registry used by later compilations.
func (c *Compiler) SetRegistry(reg *Registry) {
	if reg == nil {
		return
	}
	c.mu.Lock()
	c.reg = reg
	c.mu.Unlock()
}

func (c *Compiler) Registry() *Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reg
}

// Compile turns the roots of a menu tree into route definitions, one per root,
// in input order.
//
// Every root becomes a layout route at its path. A root without children gets a
// single index child at "" named <name>Index carrying the view. A root with
// children gets its descendants compiled beneath it, where nested branches add
// no route of their own and only contribute their leaves.
func (c *Compiler) Compile(roots []*menu.Node) []Definition {
	reg := c.Registry()
	out := make([]Definition, 0, len(roots))
	for _, n := range roots {
		if n == nil {
			continue
		}
		out = append(out, compileTop(reg, n))
	}
	return out
}

func compileTop(reg *Registry, n *menu.Node) Definition {
	def := Definition{
		Path:      n.Path,
		Name:      n.Name,
		Component: reg.Layout,
		Meta:      routeMeta(n),
	}
	if n.IsLeaf() {
		def.Children = []Definition{{
			Path:      "",
			Name:      n.Name + "Index",
			Redirect:  n.Redirect,
			Component: reg.Resolve(n.Component),
			Meta:      routeMeta(n),
		}}
		return def
	}
	def.Children = compileNested(reg, n.Children)
	return def
}

func compileNested(reg *Registry, list []*menu.Node) []Definition {
	out := make([]Definition, 0, len(list))
	for _, n := range list {
		if n == nil {
			continue
		}
		if !n.IsLeaf() {
			out = append(out, compileNested(reg, n.Children)...)
			continue
		}
		out = append(out, Definition{
			Path:      n.Path,
			Name:      n.Name,
			Redirect:  n.Redirect,
			Component: reg.Resolve(n.Component),
			Meta:      routeMeta(n),
		})
	}
	return out
}

// routeMeta carries the node's meta bag with title, icon, breadcrumb, hidden
// and roles always taken from the node itself.
func routeMeta(n *menu.Node) map[string]any {
	meta := make(map[string]any, len(n.Meta)+5)
	for k, v := range n.Meta {
		meta[k] = v
	}
	meta["title"] = n.Title
	meta["icon"] = n.Icon
	meta["breadcrumb"] = n.Title
	meta["hidden"] = !n.Visible
	meta["roles"] = append([]string{}, n.Roles...)
	return meta
}

// CatchAll is registered after the dynamic routes so unknown paths render the
// not-found view inside the layout.
func (c *Compiler) CatchAll() Definition {
	reg := c.Registry()
	meta := map[string]any{"hidden": true, "title": "404"}
	return Definition{
		Path:      CatchAllPath,
		Name:      "NotFound",
		Component: reg.Layout,
		Meta:      meta,
		Children: []Definition{{
			Path:      "",
			Name:      "NotFoundPage",
			Component: reg.NotFound,
			Meta:      map[string]any{"hidden": true, "title": "404"},
		}},
	}
}
