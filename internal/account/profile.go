// Package account normalizes the signed-in user's profile and answers role and
// permission checks against it.
package account

import (
	"strings"

	"consolenav/internal/common/fields"
	"consolenav/internal/shape"
	"consolenav/internal/util/jsonutil"
)

// DefaultDisplayName is shown when a profile carries no usable name.
const DefaultDisplayName = "Administrator"

// UserID identifies a user across gateway services.
type UserID string

func NormalizeUserID(raw string) UserID {
	return UserID(strings.TrimSpace(raw))
}

func (id UserID) String() string {
	return strings.TrimSpace(string(id))
}

func (id UserID) IsZero() bool {
	return id.String() == ""
}

type Role struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Code        string   `json:"code"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
	Status      int      `json:"status"`
}

// Profile is the normalized user behind a session.
type Profile struct {
	ID          UserID   `json:"id"`
	Username    string   `json:"username"`
	RealName    string   `json:"realName"`
	Nickname    string   `json:"nickname,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Status      int      `json:"status"`
	Roles       []Role   `json:"roles"`
	RoleCodes   RoleSet  `json:"roleCodes"`
	Permissions []string `json:"permissions"`
	CreateTime  string   `json:"createTime,omitempty"`
	UpdateTime  string   `json:"updateTime,omitempty"`
}

var (
	realNameKeys = fields.Chain{"realName", "real_name", "name", "nickname", "displayName", "display_name"}
	usernameKeys = fields.Chain{"username", "user_name", "name"}
	createKeys   = fields.Chain{"createTime", "create_time", "created_at", "createdAt"}
	updateKeys   = fields.Chain{"updateTime", "update_time", "updated_at", "updatedAt"}
)

// NormalizeProfile reads a user-info payload. The user object may sit behind
// any depth of "data" and "user" wrappers; roles and permissions are read from
// the deepest wrapper that carries them. loginName fills in missing names.
func NormalizeProfile(raw any, loginName string) Profile {
	container := shape.Unwrap(raw, "data")
	chain := []any{container}
	for cur := container; ; {
		next, ok := jsonutil.Lookup(cur, "user")
		if !ok {
			break
		}
		if _, isObj := jsonutil.AsRecord(next); !isObj {
			break
		}
		chain = append(chain, next)
		cur = next
	}
	user := chain[len(chain)-1]

	p := Profile{
		ID:          NormalizeUserID(fields.String(user, "", "id", "userId", "user_id")),
		RealName:    fields.String(user, loginName, realNameKeys...),
		Username:    fields.String(user, firstNonEmpty(loginName, "user"), usernameKeys...),
		Nickname:    fields.String(user, "", "nickname", "nickName", "nick_name"),
		Avatar:      fields.String(user, "", "avatar"),
		Email:       fields.String(user, "", "email"),
		Phone:       fields.String(user, "", "phone", "phonenumber", "mobile"),
		Status:      fields.Int(user, 0, "status"),
		CreateTime:  fields.String(user, "", createKeys...),
		UpdateTime:  fields.String(user, "", updateKeys...),
		Roles:       []Role{},
		Permissions: []string{},
	}

	if rolesRaw, ok := deepest(chain, "roles"); ok {
		p.Roles, p.RoleCodes = normalizeRoles(rolesRaw)
	}
	if len(p.RoleCodes) == 0 {
		p.RoleCodes = RoleSet{"user"}
	}
	if permsRaw, ok := deepest(chain, "permissions"); ok {
		p.Permissions = normalizePermissions(permsRaw)
	}
	return p
}

// DisplayName picks the friendliest name available.
func (p Profile) DisplayName() string {
	candidates := []string{p.RealName, p.Username}
	if len(p.Roles) > 0 {
		candidates = append(candidates, p.Roles[0].Name)
	}
	candidates = append(candidates, p.Nickname)
	for _, c := range candidates {
		if s := strings.TrimSpace(c); s != "" {
			return s
		}
	}
	return DefaultDisplayName
}

// Can reports whether the profile grants permission. A "*" permission or the
// admin role grants everything.
func (p Profile) Can(permission string) bool {
	if p.RoleCodes.contains("admin") {
		return true
	}
	for _, have := range p.Permissions {
		if have == "*" || have == permission {
			return true
		}
	}
	return false
}

func deepest(chain []any, key string) (any, bool) {
	for i := len(chain) - 1; i >= 0; i-- {
		if v, ok := jsonutil.Lookup(chain[i], key); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func normalizeRoles(raw any) ([]Role, RoleSet) {
	arr, ok := jsonutil.AsArray(raw)
	if !ok {
		return []Role{}, nil
	}
	roles := make([]Role, 0, len(arr))
	codes := make(RoleSet, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				roles = append(roles, Role{Name: s, Code: s, Permissions: []string{}})
				codes = append(codes, strings.ToLower(s))
			}
			continue
		}
		if _, isObj := jsonutil.AsRecord(item); !isObj {
			continue
		}
		r := Role{
			ID:          fields.String(item, "", "id", "roleId", "role_id"),
			Name:        fields.String(item, "", "name", "roleName", "role_name"),
			Code:        fields.String(item, "", "code", "roleKey", "role_key"),
			Description: fields.String(item, "", "description", "remark"),
			Permissions: fields.Strings(item, "permissions"),
			Status:      fields.Int(item, 0, "status"),
		}
		roles = append(roles, r)
		if code := firstNonEmpty(r.Code, r.Name); code != "" {
			codes = append(codes, strings.ToLower(code))
		}
	}
	return roles, codes
}

func normalizePermissions(raw any) []string {
	arr, ok := jsonutil.AsArray(raw)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := fields.Scalar(item); ok {
			if s != "" {
				out = append(out, s)
			}
			continue
		}
		if s := fields.String(item, "", "name", "code"); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
