package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/Akash00404/Ayush-Textbook-Assesment/config"
)

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "verbose", Format: "json"}); err == nil {
		t.Error("期望无效日志级别报错")
	}
}

func TestNewLogger_Console(t *testing.T) {
	l, err := NewLogger(&config.LogConfig{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("NewLogger 应成功: %v", err)
	}
	if !l.Core().Enabled(zap.DebugLevel) {
		t.Error("期望 debug 级别已启用")
	}
}

func TestFromContext(t *testing.T) {
	fallback := zap.NewNop()
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Error("context 中无 logger 时应返回 fallback")
	}

	reqLogger := zap.NewExample()
	ctx := WithContext(context.Background(), reqLogger)
	if got := FromContext(ctx, fallback); got != reqLogger {
		t.Error("应返回 context 中的 logger")
	}
}
