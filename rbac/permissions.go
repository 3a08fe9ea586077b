// Package rbac implements the permission map and authorization gate of
// section 4.10: path-pattern + HTTP-method -> required permission, with
// role/permission union resolution and a superuser bypass.
package rbac

import (
	"context"
	"path"
	"strings"

	"github.com/scullers68/sprintintel/model"
)

// Rule maps one (path pattern, HTTP method) pair to the permission string
// required to invoke it. PathPattern supports a single trailing "*"
// wildcard segment, e.g. "/api/sprints/*".
type Rule struct {
	PathPattern string
	Method      string
	Permission  string
}

// PermissionMap is a compiled, ordered set of Rules. Rules are matched in
// declaration order; the first match wins.
type PermissionMap struct {
	rules []Rule
}

// NewPermissionMap compiles rules into a PermissionMap.
func NewPermissionMap(rules []Rule) *PermissionMap {
	return &PermissionMap{rules: rules}
}

// RequiredPermission returns the permission string required for
// (method, requestPath), and whether any rule matched. An unmatched route
// has no permission requirement under this map; Gate lets such a request
// through without a permission check.
func (m *PermissionMap) RequiredPermission(method, requestPath string) (string, bool) {
	for _, rule := range m.rules {
		if !strings.EqualFold(rule.Method, method) {
			continue
		}
		if matchPath(rule.PathPattern, requestPath) {
			return rule.Permission, true
		}
	}
	return "", false
}

// matchPath supports exact matches and a single trailing "*" wildcard
// segment.
func matchPath(pattern, requestPath string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == requestPath
	}
	prefix := strings.TrimSuffix(pattern, "*")
	return strings.HasPrefix(requestPath, prefix)
}

// Store resolves a user's roles into permissions.
type Store interface {
	RolesForUser(ctx context.Context, userID string) ([]model.Role, error)
}

// UserPermissions is the union of permissions of a user's active roles.
func UserPermissions(ctx context.Context, store Store, userID string) (map[string]bool, error) {
	roles, err := store.RolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms := make(map[string]bool)
	for _, role := range roles {
		for _, p := range role.Permissions {
			perms[p] = true
		}
	}
	return perms, nil
}

// HasPermission implements the check of section 4.10:
//
//	user active AND (user superuser OR required permission in permissions(user))
func HasPermission(active, superuser bool, permissions map[string]bool, required string) bool {
	if !active {
		return false
	}
	if superuser {
		return true
	}
	return permissions[required]
}

// CleanPath normalizes a request path the way the permission map expects
// (no trailing slash, single leading slash).
func CleanPath(requestPath string) string {
	if requestPath == "" {
		return "/"
	}
	cleaned := path.Clean(requestPath)
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	return cleaned
}
