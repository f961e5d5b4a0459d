package logging

import (
	"context"

	"go.uber.org/zap"
)

type loggerKey struct{}

// GetLogger returns the logger carried by ctx, or the global logger.
func GetLogger(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.L()
}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// With adds fields to ctx's logger, returning both the new context and the logger.
func With(ctx context.Context, fields ...zap.Field) (context.Context, *zap.Logger) {
	log := GetLogger(ctx).With(fields...)
	return WithLogger(ctx, log), log
}
