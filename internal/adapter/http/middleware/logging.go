package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
)

const loggerKey = "logger"

// RequestLogger returns middleware that gives each request a logger tagged
// with its request id, and logs the request on completion. The scoped
// logger is available from Logger and from zerolog.Ctx on the request
// context.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqLog := log
			if reqID := GetRequestID(c); reqID != "" {
				reqLog = log.WithRequestID(reqID)
			}
			c.Set(loggerKey, reqLog)
			req := c.Request()
			c.SetRequest(req.WithContext(reqLog.Logger.WithContext(req.Context())))

			if err := next(c); err != nil {
				// hand the error to echo so the status is final
				c.Error(err)
			}

			res := c.Response()
			var event *zerolog.Event
			switch status := res.Status; {
			case status >= 500:
				event = reqLog.Error()
			case status >= 400:
				event = reqLog.Warn()
			default:
				event = reqLog.Info()
			}

			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("query", req.URL.RawQuery).
				Int("status", res.Status).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int64("bytes_out", res.Size).
				Str("client_ip", c.RealIP()).
				Str("user_agent", req.UserAgent()).
				Msg("HTTP request")

			return nil
		}
	}
}

// Logger returns the request-scoped logger, or a no-op logger outside
// RequestLogger.
func Logger(c echo.Context) *logger.Logger {
	if log, ok := c.Get(loggerKey).(*logger.Logger); ok {
		return log
	}
	return logger.Nop()
}
