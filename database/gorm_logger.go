package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-backoffice/utils"
	"gorm.io/gorm/logger"
)

// GormLogger routes gorm's logging through the application's logrus loggers.
type GormLogger struct {
	Config logger.Config
}

func NewGormLogger(config logger.Config) *GormLogger {
	return &GormLogger{Config: config}
}

func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.Config.LogLevel = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Info {
		utils.InfoLogger.Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Warn {
		utils.ErrorLogger.Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Error {
		utils.ErrorLogger.Errorf(msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := logrus.Fields{"sql": sql, "rows": rows, "elapsed": elapsed.String()}

	switch {
	case err != nil && l.Config.LogLevel >= logger.Error &&
		(!errors.Is(err, logger.ErrRecordNotFound) || !l.Config.IgnoreRecordNotFoundError):
		utils.ErrorLogger.WithFields(fields).WithError(err).Error("SQL query failed")
	case l.Config.SlowThreshold != 0 && elapsed > l.Config.SlowThreshold && l.Config.LogLevel >= logger.Warn:
		utils.ErrorLogger.WithFields(fields).Warn("slow SQL query")
	case l.Config.LogLevel >= logger.Info:
		utils.InfoLogger.WithFields(fields).Debug("SQL query")
	}
}
