package menu

import (
	"consolenav/internal/common/fields"
	"consolenav/internal/util/jsonutil"
)

// Candidate keys per attribute, camelCase first, then snake_case, then aliases.
var (
	idKeys        = fields.Chain{"id", "menuId", "menu_id"}
	parentKeys    = fields.Chain{"parentId", "parent_id", "pid"}
	nameKeys      = fields.Chain{"name", "routeName", "route_name", "menuName", "menu_name"}
	titleKeys     = fields.Chain{"title", "menuTitle", "menu_title"}
	pathKeys      = fields.Chain{"path", "routePath", "route_path"}
	componentKeys = fields.Chain{"component", "componentPath", "component_path"}
	iconKeys      = fields.Chain{"icon", "menuIcon", "menu_icon"}
	typeKeys      = fields.Chain{"type", "menuType", "menu_type"}
	sortKeys      = fields.Chain{"sort", "orderNum", "order_num", "sortOrder", "sort_order"}
	permsKeys     = fields.Chain{"perms", "permission", "perm"}
	roleKeys      = fields.Chain{"roles", "roleCodes", "role_codes"}
	createKeys    = fields.Chain{"createTime", "create_time"}
	updateKeys    = fields.Chain{"updateTime", "update_time"}
)

// Normalize converts one raw menu record, and its nested children, into a Node.
// It never fails: missing or mistyped attributes take their defaults.
func Normalize(raw any) *Node {
	name := fields.String(raw, "", nameKeys...)
	title := fields.String(raw, name, titleKeys...)
	n := &Node{
		Name:       name,
		Title:      title,
		Path:       fields.String(raw, "", pathKeys...),
		Component:  fields.String(raw, "", componentKeys...),
		Redirect:   fields.String(raw, "", "redirect"),
		Icon:       fields.String(raw, "", iconKeys...),
		Type:       fields.String(raw, TypeMenu, typeKeys...),
		Sort:       fields.Int(raw, 0, sortKeys...),
		Visible:    true,
		Status:     fields.Int(raw, 1, "status"),
		Perms:      fields.String(raw, "", permsKeys...),
		Roles:      fields.Strings(raw, roleKeys...),
		CreateTime: fields.String(raw, "", createKeys...),
		UpdateTime: fields.String(raw, "", updateKeys...),
		Children:   []*Node{},
	}
	if id, ok := fields.First(raw, idKeys...); ok {
		n.ID = id
	}
	if pid, ok := fields.First(raw, parentKeys...); ok {
		n.ParentID = pid
	}
	if v, ok := jsonutil.Lookup(raw, "visible"); ok {
		if b, isBool := v.(bool); isBool && !b {
			n.Visible = false
		}
	}

	n.Meta = map[string]any{
		"title":      title,
		"icon":       n.Icon,
		"hidden":     fields.Bool(raw, false, "hidden"),
		"breadcrumb": title,
		"roles":      append([]string{}, n.Roles...),
	}
	if meta, ok := jsonutil.Lookup(raw, "meta"); ok {
		if rec, ok := jsonutil.AsRecord(meta); ok {
			for _, k := range rec.Keys() {
				v, _ := rec.Get(k)
				n.Meta[k] = jsonutil.Plain(v)
			}
		}
	}

	if children, ok := jsonutil.Lookup(raw, "children"); ok {
		if arr, ok := jsonutil.AsArray(children); ok {
			for _, c := range arr {
				n.Children = append(n.Children, Normalize(c))
			}
		}
	}
	return n
}

// NormalizeAll normalizes a flat list of raw records.
func NormalizeAll(raw []any) []*Node {
	out := make([]*Node, 0, len(raw))
	for _, r := range raw {
		out = append(out, Normalize(r))
	}
	return out
}
