package handler // handler defines http handlers

import (
    "errors"  // errors matches sentinel values from repositories and services
    "fmt"     // fmt formats validation messages
    "net/http"
    "strconv" // strconv converts path parameters to numeric types
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-ticket-booking/internal/middleware"
    "github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

// getUserID extracts the authenticated user's id from echo.Context.
func getUserID(c echo.Context) (uint64, error) {
    if id, ok := middleware.UserID(c); ok {
        return id, nil
    }
    return 0, errors.New("invalid user_id in context")
}

// parseInt64Param reads a positive integer path parameter.
func parseInt64Param(c echo.Context, name string) (int64, bool) {
    n, err := strconv.ParseInt(c.Param(name), 10, 64)
    if err != nil || n <= 0 {
        return 0, false
    }
    return n, true
}

// writeError maps repository sentinels onto HTTP statuses.  Anything else
// is a 500 with a generic message; the cause is already logged below.
func writeError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
    v *validator.Validate
}

func NewValidator() *RequestValidator {
    return &RequestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (r *RequestValidator) Validate(i interface{}) error { return r.v.Struct(i) }

// bindAndValidate binds the body into req and runs the struct tags.  On
// failure it writes the 400 response and returns false.
func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
    if err := c.Bind(req); err != nil {
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := c.Validate(req); err != nil {
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": validationMessage(err)})
    }
    return true, nil
}

func validationMessage(err error) string {
    var ves validator.ValidationErrors
    if !errors.As(err, &ves) {
        return "invalid request"
    }
    parts := make([]string, 0, len(ves))
    for _, fe := range ves {
        field := strings.ToLower(fe.Field())
        if fe.Param() != "" {
            parts = append(parts, fmt.Sprintf("%s: %s=%s", field, fe.Tag(), fe.Param()))
        } else {
            parts = append(parts, fmt.Sprintf("%s: %s", field, fe.Tag()))
        }
    }
    return strings.Join(parts, "; ")
}
