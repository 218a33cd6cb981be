package database

import (
	"time"

	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"
)

// SlowQueryThreshold is the duration above which gorm reports a query as slow.
const SlowQueryThreshold = 200 * time.Millisecond

// zerologWriter adapts a zerolog logger to gorm's Printf writer.
type zerologWriter struct {
	log zerolog.Logger
}

func (w zerologWriter) Printf(format string, args ...interface{}) {
	w.log.Warn().Msgf(format, args...)
}

// NewGormLogger routes gorm's warnings, slow queries and errors through zl.
// Missing-record lookups are expected and not logged.
func NewGormLogger(zl zerolog.Logger) gormlogger.Interface {
	return gormlogger.New(zerologWriter{log: zl}, gormlogger.Config{
		SlowThreshold:             SlowQueryThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
