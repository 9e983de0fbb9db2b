// Package middleware provides the middleware for the Echo instance
package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nsvirk/spxanalytics/pkg/utils/zaplogger"
)

// SetupLoggerMiddleware logs every request through zaplogger and recovers from panics
func SetupLoggerMiddleware(e *echo.Echo) {
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogRemoteIP: true,
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := zaplogger.Fields{
				"ip":      v.RemoteIP,
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			}
			if v.Error != nil {
				fields["error"] = v.Error.Error()
				zaplogger.Error("request", fields)
				return nil
			}
			zaplogger.Info("request", fields)
			return nil
		},
	}))
	e.Use(middleware.Recover())
}
