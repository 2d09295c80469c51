package menu

// RoleChecker answers whether the current user holds a role.
type RoleChecker interface {
	Has(role string) bool
}

// Navigation returns a deep copy of the forest restricted to what a user may
// see in rendered navigation. Hidden nodes and nodes whose roles the user holds
// none of are left out with their subtrees. A nil checker skips role checks.
func Navigation(tree []*Node, roles RoleChecker) []*Node {
	out := make([]*Node, 0, len(tree))
	for _, n := range tree {
		if n == nil || n.Hidden() || !allowed(n, roles) {
			continue
		}
		cp := n.Clone()
		cp.Children = Navigation(n.Children, roles)
		out = append(out, cp)
	}
	return out
}

func allowed(n *Node, roles RoleChecker) bool {
	if roles == nil || len(n.Roles) == 0 {
		return true
	}
	for _, r := range n.Roles {
		if roles.Has(r) {
			return true
		}
	}
	return false
}
