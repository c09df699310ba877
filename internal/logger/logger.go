// Package logger настраивает zap и пробрасывает request-scoped логгер
// через echo.Context.
package logger

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const contextKey = "logger"

// New собирает логгер: JSON в production, человекочитаемый в разработке.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level.SetLevel(lvl)

	return cfg.Build()
}

// FromEcho достаёт request-scoped логгер; вне middleware вернёт no-op.
func FromEcho(c echo.Context) *zap.Logger {
	if log, ok := c.Get(contextKey).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}

// Middleware кладёт логгер с request_id в контекст и пишет access-лог.
func Middleware(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			reqLog := log.With(zap.String("request_id", requestID))
			c.Set(contextKey, reqLog)

			err := next(c)

			fields := []zapcore.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
			}
			if err != nil {
				reqLog.Error("http request failed", append(fields, zap.Error(err))...)
			} else {
				reqLog.Info("http request completed", fields...)
			}

			return err
		}
	}
}
