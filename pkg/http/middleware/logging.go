package middleware

import (
	"time"

	applogger "CoinDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs one line per request. Failed requests log at warn,
// everything else at debug.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	l = applogger.OrNop(l)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			res := c.Response()
			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("route", c.Path()),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Duration("latency_ms", time.Since(start)),
			}
			if src := res.Header().Get("X-Data-Source"); src != "" {
				fields = append(fields, applogger.String("source", src))
			}
			if err != nil || res.Status >= 500 {
				if err != nil {
					fields = append(fields, applogger.Error(err))
				}
				l.Warn("http request failed", fields...)
				return err
			}
			l.Debug("http request", fields...)
			return err
		}
	}
}
