package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahrav/go-polindex/internal/ports"
)

var _ ports.StageObserver = (*stageLogger)(nil)

// stageLogger logs every pipeline step at debug level. Failures are logged
// at error by the Engine, once per run.
type stageLogger struct {
	logger *slog.Logger
}

func (l *stageLogger) StageStarted(ctx context.Context, pipelineID, stageID string) context.Context {
	l.logger.DebugContext(ctx, "stage started",
		slog.String("pipeline", pipelineID),
		slog.String("stage", stageID))
	return ctx
}

func (l *stageLogger) StageFinished(ctx context.Context, pipelineID, stageID string, elapsed time.Duration, err error) {
	attrs := []any{
		slog.String("pipeline", pipelineID),
		slog.String("stage", stageID),
		slog.Duration("elapsed", elapsed),
		slog.Bool("ok", err == nil),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	l.logger.DebugContext(ctx, "stage finished", attrs...)
}
