package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "MarketSim/pkg/logger"
)

// RequestLogging writes one debug line per request once the response is complete.
// For the websocket route that is when the stream closes.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			r := c.Request()
			l.Debug("http request",
				applogger.String("method", r.Method),
				applogger.String("uri", r.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("latency_ms", time.Since(start)),
			)
			return nil
		}
	}
}
