package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "CoinDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover converts a handler panic into an enveloped 500 response.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	l = applogger.OrNop(l)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (ret error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", r)
				}
				l.Error("handler panicked",
					applogger.String("method", c.Request().Method),
					applogger.String("route", c.Path()),
					applogger.Error(err),
					applogger.String("stack", string(debug.Stack())),
				)
				if c.Response().Committed {
					ret = nil
					return
				}
				ret = c.JSON(http.StatusInternalServerError, map[string]interface{}{
					"status":  http.StatusInternalServerError,
					"message": http.StatusText(http.StatusInternalServerError),
					"data":    []map[string]string{{"code": "ERR_INTERNAL", "message": "unexpected error"}},
				})
			}()
			return next(c)
		}
	}
}
