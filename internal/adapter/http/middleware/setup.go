package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
)

// Setup registers all middleware on the Echo instance in order:
//  1. RequestID, so every later log line carries the id
//  2. RequestLogger
//  3. Recover, innermost, so a panic still gets logged as a 500
//
// Call it before registering routes.
func Setup(e *echo.Echo, log *logger.Logger) {
	SetupWithConfig(e, log, DefaultRecoveryConfig())
}

// SetupWithConfig registers middleware with custom recovery configuration.
func SetupWithConfig(e *echo.Echo, log *logger.Logger, recoveryConfig RecoveryConfig) {
	for _, mw := range chain(log, recoveryConfig) {
		e.Use(mw)
	}
}

// Chain returns all middleware as a slice for use with route groups.
func Chain(log *logger.Logger) []echo.MiddlewareFunc {
	return chain(log, DefaultRecoveryConfig())
}

func chain(log *logger.Logger, recoveryConfig RecoveryConfig) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		RequestID(),
		RequestLogger(log),
		RecoverWithConfig(log, recoveryConfig),
	}
}
