package account

import "strings"

// roleAliases lets backends that name roles in other words (or languages)
// satisfy the canonical role checks.
var roleAliases = map[string][]string{
	"super_admin": {"super_admin", "superadmin", "超级管理员", "超级用户"},
	"admin":       {"admin", "administrator", "管理员", "系统管理员"},
	"user":        {"user", "member", "用户", "普通用户"},
}

// RoleSet holds lower-cased role codes.
type RoleSet []string

// Has reports whether the set satisfies role. Holders of "admin" satisfy every
// role.
func (r RoleSet) Has(role string) bool {
	if r.contains("admin") {
		return true
	}
	target := strings.ToLower(strings.TrimSpace(role))
	if r.contains(target) {
		return true
	}
	aliases, ok := roleAliases[target]
	if !ok {
		return false
	}
	for _, have := range r {
		for _, alias := range aliases {
			if have == alias || strings.ToLower(have) == alias {
				return true
			}
		}
	}
	return false
}

func (r RoleSet) contains(role string) bool {
	for _, have := range r {
		if have == role {
			return true
		}
	}
	return false
}
