package mysql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/realmauth/pkg/slogx"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQuery is the threshold above which queries are logged at warn.
const DefaultSlowQuery = 200 * time.Millisecond

// gormLogger forwards gorm's logging to slog. Statements are logged at debug,
// slow statements at warn and failures at error. Record-not-found is an
// expected outcome of lookups and is never logged as an error.
type gormLogger struct {
	base      *slog.Logger
	level     gormlogger.LogLevel
	slowQuery time.Duration
}

// NewGormLogger adapts logger to gorm. A nil logger uses slog.Default.
func NewGormLogger(logger *slog.Logger, slowQuery time.Duration) gormlogger.Interface {
	if slowQuery <= 0 {
		slowQuery = DefaultSlowQuery
	}
	return &gormLogger{base: logger, level: gormlogger.Info, slowQuery: slowQuery}
}

// logger prefers the request-scoped logger so SQL lines carry the req_id.
func (l *gormLogger) logger(ctx context.Context) *slog.Logger {
	logger, ok := slogx.Lookup(ctx)
	switch {
	case ok:
	case l.base != nil:
		logger = l.base
	default:
		logger = slog.Default()
	}
	return logger.With(slog.String("component", "gorm"))
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.level = level
	return &next
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.logger(ctx).InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.logger(ctx).WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.logger(ctx).ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	attrs := func() []any {
		sql, rows := fc()
		return []any{
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Float64("elapsed_ms", float64(elapsed.Nanoseconds())/1e6),
		}
	}

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger(ctx).ErrorContext(ctx, "sql failed", append(attrs(), slog.Any("err", err))...)
	case elapsed > l.slowQuery && l.level >= gormlogger.Warn:
		l.logger(ctx).WarnContext(ctx, "slow sql", attrs()...)
	case l.level >= gormlogger.Info:
		l.logger(ctx).DebugContext(ctx, "sql", attrs()...)
	}
}
