package rbac

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scullers68/sprintintel/audit"
)

const contextKeyPrincipal = "rbac_principal"

// Principal is the authenticated identity the authorization gate checks
// against the permission map.
type Principal struct {
	UserID      string
	Active      bool
	Superuser   bool
	Permissions map[string]bool
}

// SetPrincipal stores the resolved Principal in the Echo context.
// Authentication middleware (JWT/OIDC validation) is expected to call
// this before the authorization gate runs.
func SetPrincipal(c echo.Context, p *Principal) {
	c.Set(contextKeyPrincipal, p)
}

// GetPrincipal retrieves the Principal stored by SetPrincipal.
func GetPrincipal(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(contextKeyPrincipal).(*Principal)
	return p, ok
}

// Gate returns Echo middleware enforcing the permission map against every
// request, emitting a Security Event on each grant or deny decision.
func Gate(permissions *PermissionMap, auditLog *audit.Log) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			required, matched := permissions.RequiredPermission(c.Request().Method, CleanPath(c.Request().URL.Path))
			if !matched {
				return next(c)
			}

			principal, ok := GetPrincipal(c)
			if !ok || principal == nil {
				if auditLog != nil {
					_, _ = auditLog.RecordAuthorization(c.Request().Context(), "", "route", c.Request().URL.Path, false, "no authenticated principal")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			granted := HasPermission(principal.Active, principal.Superuser, principal.Permissions, required)
			if auditLog != nil {
				_, _ = auditLog.RecordAuthorization(c.Request().Context(), principal.UserID, "route", c.Request().URL.Path, granted, "permission check: "+required)
			}
			if !granted {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions: missing "+required)
			}

			return next(c)
		}
	}
}
