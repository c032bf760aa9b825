package handler // declare the package name; contains HTTP handlers

import (
    "net/http" // net/http provides status codes and response helpers

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the process is up.  It returns a plain
// text "ok" with an HTTP 200 status code.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// APIHealth is the JSON liveness stub under /api.
func APIHealth(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"message": "Server is running"})
}

// APIMovies is the legacy /api/movies stub; it always answers an empty
// list.  The catalog lives under /v1/movies.
func APIMovies(c echo.Context) error {
    return c.JSON(http.StatusOK, []struct{}{})
}
