// 包 logger：统一初始化与获取日志器；通过环境变量控制级别、格式与源码位置
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[slog.Logger]

// Setup：按环境变量初始化进程级日志器
// 约束：输出固定到标准错误；LOG_FORMAT=json 时输出 JSON，其余为 text；LOG_SOURCE=true 时附带源码位置。
func Setup() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(os.Getenv("LOG_LEVEL"))}
	if os.Getenv("LOG_SOURCE") == "true" {
		opts.AddSource = true
	}
	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	l := slog.New(h).With("service", "wahlkreis-api")
	defaultLogger.Store(l)
	return l
}

// L：获取默认日志器，未初始化时回退到 Setup
func L() *slog.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	return Setup()
}

// Component：带模块名的子日志器
func Component(name string) *slog.Logger { return L().With("component", name) }

// Use：替换默认日志器（测试中用于静默或捕获输出）
func Use(l *slog.Logger) { defaultLogger.Store(l) }

// Discard：丢弃全部输出的日志器
func Discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
