package provision

import (
	"context"

	"github.com/klothoplatform/fabric/pkg/logging"
	"go.uber.org/zap"
)

// Progress receives resource-level progress of a running engine operation.
type Progress interface {
	Update(status string, current, total int)
	UpdateIndeterminate(status string)
	Complete(status string)
}

// LogProgress reports progress as log lines. It is used when no other Progress is on the context.
type LogProgress struct {
	Logger *zap.Logger
}

type progressKey struct{}

func (p LogProgress) Update(status string, current, total int) {
	if total == 0 {
		p.UpdateIndeterminate(status)
		return
	}
	p.Logger.Sugar().Debugf("%s %d/%d (%.1f%%)", status, current, total, float64(current)/float64(total)*100)
}

func (p LogProgress) UpdateIndeterminate(status string) {
	p.Logger.Debug(status)
}

func (p LogProgress) Complete(status string) {
	p.Logger.Sugar().Debugf("Complete: %s", status)
}

func GetProgress(ctx context.Context) Progress {
	if p, ok := ctx.Value(progressKey{}).(Progress); ok {
		return p
	}
	return LogProgress{Logger: logging.GetLogger(ctx)}
}

func WithProgress(ctx context.Context, progress Progress) context.Context {
	return context.WithValue(ctx, progressKey{}, progress)
}
