package database

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(zerolog.New(&buf).With().Str("component", "gorm").Logger())
	sql := func() (string, int64) { return "SELECT * FROM users", 0 }

	l.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Zero(t, buf.Len())

	l.Trace(context.Background(), time.Now(), sql, errors.New("no such table: users"))
	assert.Contains(t, buf.String(), `"component":"gorm"`)
	assert.Contains(t, buf.String(), "no such table")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestGormLoggerReportsSlowQueries(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(zerolog.New(&buf))

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 1", 1 }, nil)
	assert.Contains(t, buf.String(), "SLOW SQL")
}
