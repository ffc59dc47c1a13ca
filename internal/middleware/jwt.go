package middleware

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// Context keys under which JWTAuth stores the verified claims.
// Handlers read the buyer's id via c.Get(CtxUserID) and the role
// middleware reads c.Get(CtxRole).
const (
    CtxUserID = "user_id"
    CtxRole   = "role"
)

// JWTAuth validates the Bearer access token on protected routes and
// stores its subject and role claims in the request context. The
// subject is the user id as issued by the login endpoint; the role is
// USER or ADMIN and gates the admin surface further down the chain.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearerToken(c.Request())
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }

            // Tokens are issued with HS256 only; any other signing
            // method is rejected before the key is even considered.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            // The raw claim values are stored as-is; the sub claim is a
            // JSON number and consumers type-switch on it.
            c.Set(CtxUserID, claims["sub"])
            c.Set(CtxRole, claims["role"])
            return next(c)
        }
    }
}

// bearerToken extracts the token from an "Authorization: Bearer ..."
// header.
func bearerToken(r *http.Request) (string, bool) {
    auth := r.Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return "", false
    }
    return strings.TrimPrefix(auth, "Bearer "), true
}
