package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flavorshare/backend/internal/apperr"
	authmw "github.com/flavorshare/backend/internal/middleware/auth"
)

// httpError maps a taxonomy error onto the HTTP status contract. Anything
// outside the taxonomy is a server error and the internal detail stays out
// of the response.
func httpError(err error) error {
	code := apperr.Status(err)
	if code == http.StatusInternalServerError {
		return echo.NewHTTPError(code, "internal server error")
	}
	return echo.NewHTTPError(code, err.Error())
}

func currentUser(c echo.Context) (uint, string, error) {
	id, ok := c.Get(authmw.ContextUserID).(uint)
	if !ok {
		return 0, "", apperr.Wrap(apperr.ErrUnauthenticated, "missing identity")
	}
	username, _ := c.Get(authmw.ContextUsername).(string)
	return id, username, nil
}

// requireOwner is the final authorize stage: the resource was already
// located, so a mismatch is forbidden rather than hidden as not-found.
func requireOwner(actorID, ownerID uint, what string) error {
	if actorID != ownerID {
		return apperr.Wrap(apperr.ErrForbidden, "you can only modify your own "+what)
	}
	return nil
}
