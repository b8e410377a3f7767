package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWith_AttachesFieldsToContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &zapLogger{sugarLogger: zap.New(core).Sugar(), cfg: &ZapConfig{}}

	ctx := l.With(context.Background(), "request_id", "abc")
	l.Infof(ctx, "entered %s", "queue")
	l.Info(context.Background(), "plain")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "entered queue", entries[0].Message)
		assert.Equal(t, "abc", entries[0].ContextMap()["request_id"])
		assert.Empty(t, entries[1].ContextMap())
	}
}

func TestGetLoggerLevel_FallsBackToDebug(t *testing.T) {
	l := &zapLogger{cfg: &ZapConfig{Level: "verbose"}}
	assert.Equal(t, "debug", l.getLoggerLevel().String())

	l.cfg.Level = "warn"
	assert.Equal(t, "warn", l.getLoggerLevel().String())
}
