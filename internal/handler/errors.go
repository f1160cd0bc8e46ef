package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/character-api/internal/apperr"
)

// ErrorHandler is installed as echo's HTTPErrorHandler.  Every failure,
// whether returned by a gate, a handler or echo itself, leaves the server
// as a JSON body of the form {"message": "..."}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	ae := classify(err)
	status := ae.Status()
	if status >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, echo.Map{"message": ae.Message})
	}
	if werr != nil {
		c.Logger().Error(werr)
	}
}

// classify turns any error into an *apperr.Error.
func classify(err error) *apperr.Error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			return apperr.ErrEndpointNotFound
		case http.StatusBadRequest:
			return apperr.Wrap(apperr.KindBadRequest, apperr.ErrBadRequest.Message, err)
		case http.StatusUnauthorized:
			return apperr.Wrap(apperr.KindUnauthorized, apperr.ErrUnauthorized.Message, err)
		case http.StatusForbidden:
			return apperr.Wrap(apperr.KindForbidden, apperr.ErrForbidden.Message, err)
		case http.StatusTooManyRequests:
			return apperr.Wrap(apperr.KindTooManyRequests, apperr.ErrTooManyRequests.Message, err)
		}
		if he.Code < http.StatusInternalServerError {
			// anything else echo produces is a caller error
			return apperr.Wrap(apperr.KindBadRequest, http.StatusText(he.Code), err)
		}
		if he.Internal != nil {
			return apperr.Internal(he.Internal)
		}
	}
	return apperr.Internal(err)
}
