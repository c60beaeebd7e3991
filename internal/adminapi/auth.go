package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/silmarabolos/storefront/internal/auth"
	"github.com/silmarabolos/storefront/internal/webserver"
)

func registerAuthRoutes() {
	webserver.PublicPOST("/auth/login", login)
	webserver.ApiGET("/session", currentSession)
}

func login(c echo.Context) error {
	var creds auth.Credentials
	if err := c.Bind(&creds); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse credentials", err.Error())
	}
	if err := c.Validate(&creds); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Username and password are required", nil)
	}
	session, err := GetAppContext(c).Auth().Login(c.Request().Context(), creds)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, session)
}

func currentSession(c echo.Context) error {
	id, found := webserver.CurrentIdentity(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "No active session", nil)
	}
	return ok(c, id)
}
