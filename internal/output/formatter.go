package output

import (
	"context"

	"github.com/mrzor/nblog/internal/merger"
	"go.uber.org/zap"
)

// LogObserver logs every merge pass.
type LogObserver struct {
	logger *zap.Logger
	quiet  bool
}

var _ merger.Observer = (*LogObserver)(nil)

// NewLogObserver creates a LogObserver. With quiet set, passes that moved
// nothing and lost nothing are not logged.
func NewLogObserver(logger *zap.Logger, quiet bool) *LogObserver {
	return &LogObserver{logger: logger, quiet: quiet}
}

// ObserveMerge logs s at info level, or warn level when bytes were lost.
func (o *LogObserver) ObserveMerge(_ context.Context, s merger.Stats) error {
	lossy := s.Lost > 0 || s.Skipped > 0
	if o.quiet && s.Records == 0 && !lossy {
		return nil
	}
	fields := []zap.Field{
		zap.Int("sources", s.Sources),
		zap.Int("records", s.Records),
		zap.Uint64("lost", s.Lost),
		zap.Int("skipped", s.Skipped),
		zap.Int("faults", s.Faults),
		zap.Duration("duration", s.Duration),
	}
	if lossy {
		o.logger.Warn("merge pass lost events", fields...)
		return nil
	}
	o.logger.Info("merge pass", fields...)
	return nil
}
