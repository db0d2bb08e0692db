package guardar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogFunc_FormatsAndLevels(t *testing.T) {
	type entry struct {
		level Level
		msg   string
	}
	var got []entry
	logger := LogFunc(func(_ context.Context, level Level, msg string) {
		got = append(got, entry{level, msg})
	})
	ctx := context.Background()

	logger.Debug(ctx, "d %d", 1)
	logger.Info(ctx, "i %s", "two")
	logger.Warn(ctx, "w")
	logger.Error(ctx, "e %v", true)

	assert.Equal(t, []entry{
		{LevelDebug, "d 1"},
		{LevelInfo, "i two"},
		{LevelWarn, "w"},
		{LevelError, "e true"},
	}, got)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "level(9)", Level(9).String())
}

func TestDefaultLogger_IsSilent(t *testing.T) {
	s := newTestStore(t, NewMemory())
	assert.Equal(t, defaultLogger, s.logger)

	// No panic with the default logger on an error path.
	_ = s.SetField(context.Background(), "k", make(chan int))
}

func TestStoreLogs_ThroughLogFunc(t *testing.T) {
	var levels []Level
	logger := LogFunc(func(_ context.Context, level Level, _ string) {
		levels = append(levels, level)
	})
	s := newTestStore(t, NewMemory(), WithLogger(logger))
	_ = s.SetField(context.Background(), "k", make(chan int))

	assert.Equal(t, []Level{LevelDebug, LevelError}, levels)
}
