// Package menu turns raw menu permission records into a canonical, sorted
// tree and answers lookups over it.
package menu

import (
	"consolenav/internal/common/fields"
)

// Menu types. The route compiler treats them uniformly.
const (
	TypeMenu   = "menu"
	TypeButton = "button"
	TypeDir    = "dir"
)

// Node is one navigable entry of a menu tree.
type Node struct {
	ID         any            `json:"id"`
	ParentID   any            `json:"parentId,omitempty"`
	Name       string         `json:"name"`
	Title      string         `json:"title"`
	Path       string         `json:"path"`
	Component  string         `json:"component,omitempty"`
	Redirect   string         `json:"redirect,omitempty"`
	Icon       string         `json:"icon,omitempty"`
	Type       string         `json:"type"`
	Sort       int            `json:"sort"`
	Visible    bool           `json:"visible"`
	Status     int            `json:"status"`
	Perms      string         `json:"perms,omitempty"`
	Roles      []string       `json:"roles"`
	Meta       map[string]any `json:"meta"`
	Children   []*Node        `json:"children"`
	CreateTime string         `json:"createTime,omitempty"`
	UpdateTime string         `json:"updateTime,omitempty"`
}

// Key is the stringified id used for parent resolution.
func (n *Node) Key() string {
	return fields.Key(n.ID)
}

// IsRoot reports whether the node declares no parent. Absent, null, 0, "0"
// and "" all mean "no parent".
func (n *Node) IsRoot() bool {
	k := fields.Key(n.ParentID)
	return k == "" || k == "0"
}

func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Hidden reports whether the node is kept out of rendered navigation.
func (n *Node) Hidden() bool {
	if !n.Visible {
		return true
	}
	h, _ := n.Meta["hidden"].(bool)
	return h
}

// Clone deep-copies the node and its subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Roles = append([]string{}, n.Roles...)
	out.Meta = make(map[string]any, len(n.Meta))
	for k, v := range n.Meta {
		out.Meta[k] = v
	}
	out.Children = make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		out.Children = append(out.Children, c.Clone())
	}
	return &out
}

// Count returns the number of nodes in a forest, nested ones included.
func Count(tree []*Node) int {
	total := 0
	Walk(tree, func(*Node, int) bool {
		total++
		return true
	})
	return total
}

// Walk visits the forest depth-first in order. Returning false from fn skips
// the node's children.
func Walk(tree []*Node, fn func(n *Node, depth int) bool) {
	var walk func([]*Node, int)
	walk = func(list []*Node, depth int) {
		for _, n := range list {
			if n == nil {
				continue
			}
			if fn(n, depth) {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(tree, 0)
}
