package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole lets a request through only when the role JWTAuth stored
// in the context is one of the given roles. Used to keep the admin
// surface (event CRUD, layout edits, booking approval) away from plain
// USER tokens; a missing or non-string role counts as no role at all.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get(CtxRole).(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
