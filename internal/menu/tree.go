package menu

import (
	"sort"

	"consolenav/internal/common/fields"
)

// BuildTree links a flat node list into a forest through parent references and
// returns the roots. Children are attached to their parents in place.
//
// A node whose parent id does not resolve within the list is dropped, together
// with its subtree. Every level reachable from the roots is stable-sorted by
// Sort ascending.
func BuildTree(flat []*Node) []*Node {
	index := make(map[string]*Node, len(flat))
	for _, n := range flat {
		if n == nil {
			continue
		}
		index[n.Key()] = n
	}

	roots := make([]*Node, 0)
	for _, n := range flat {
		if n == nil {
			continue
		}
		if n.IsRoot() {
			roots = append(roots, n)
			continue
		}
		if parent, ok := index[fields.Key(n.ParentID)]; ok {
			if parent.Children == nil {
				parent.Children = []*Node{}
			}
			parent.Children = append(parent.Children, n)
		}
	}

	SortTree(roots)
	return roots
}

// SortTree stable-sorts every level of the forest by Sort.
func SortTree(tree []*Node) {
	seen := make(map[*Node]bool)
	var sortLevel func([]*Node)
	sortLevel = func(list []*Node) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Sort < list[j].Sort })
		for _, n := range list {
			if seen[n] {
				continue
			}
			seen[n] = true
			if n.Children == nil {
				n.Children = []*Node{}
			}
			sortLevel(n.Children)
		}
	}
	sortLevel(tree)
}

// FindByID searches the forest for the node with the given id.
func FindByID(tree []*Node, id any) *Node {
	want := fields.Key(id)
	var found *Node
	Walk(tree, func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		if n.Key() == want {
			found = n
			return false
		}
		return true
	})
	return found
}

// Level counts how many ancestors of n can be resolved within the forest.
func Level(tree []*Node, n *Node) int {
	level := 0
	seen := map[*Node]bool{}
	cur := n
	for cur != nil && !cur.IsRoot() && !seen[cur] {
		seen[cur] = true
		level++
		cur = FindByID(tree, cur.ParentID)
	}
	return level
}
