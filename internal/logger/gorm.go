package logger

import (
	"context"
	"errors"
	"time"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes GORM output through Logrus.
type GormLogger struct {
	Entry         *logrus.Entry
	SlowThreshold time.Duration
	level         gormlogger.LogLevel
}

func NewGormLogger() *GormLogger {
	return &GormLogger{
		Entry:         logrus.WithField("component", "gorm"),
		SlowThreshold: 200 * time.Millisecond,
		level:         gormlogger.Warn,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.Entry.WithContext(ctx).Infof(msg, args...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.Entry.WithContext(ctx).Warnf(msg, args...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.Entry.WithContext(ctx).Errorf(msg, args...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := logrus.Fields{"elapsed": elapsed, "rows": rows, "sql": sql}

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.Entry.WithContext(ctx).WithFields(fields).WithError(err).Error("query failed")
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.level >= gormlogger.Warn:
		l.Entry.WithContext(ctx).WithFields(fields).Warn("slow query")
	case l.level >= gormlogger.Info:
		l.Entry.WithContext(ctx).WithFields(fields).Debug("query")
	}
}
