package middleware

// identity.go holds the accessors for the identity JWTAuth stores in the
// Echo context.  Handlers and the rate limiter read the caller through
// these instead of touching context keys directly.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uint64, bool) {
    switch v := c.Get("user_id").(type) {
    case uint64:
        return v, v != 0
    case float64:
        return uint64(v), v > 0
    case string:
        n, err := strconv.ParseUint(v, 10, 64)
        return n, err == nil && n != 0
    }
    return 0, false
}

// Role returns the authenticated user's role, or "".
func Role(c echo.Context) string {
    r, _ := c.Get("role").(string)
    return r
}

// IsAdmin reports whether the caller has the ADMIN role.
func IsAdmin(c echo.Context) bool { return Role(c) == model.RoleAdmin }

// userID is the rate limit key part for the caller: the user id, or
// "anon" for anonymous requests.
func userID(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
