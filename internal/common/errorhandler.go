package common

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// JSONErrorHandler renders errors that reach echo, including those raised by
// middleware such as BodyLimit, as {"error": message}.
func JSONErrorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		switch m := httpErr.Message.(type) {
		case string:
			message = m
		case nil:
			message = http.StatusText(code)
		default:
			message = fmt.Sprint(m)
		}
	}

	var writeErr error
	if ctx.Request().Method == http.MethodHead {
		writeErr = ctx.NoContent(code)
	} else {
		writeErr = ctx.JSON(code, echo.Map{"error": message})
	}
	if writeErr != nil {
		slog.Error("JSONErrorHandler: failed to write error response", "status", code, "error", writeErr)
	}
}
