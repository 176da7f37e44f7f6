// Package logging 提供 slog 日志器的统一构造，级别与格式来自配置。
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New 按级别（debug/info/warn/error）与格式（text/json）创建日志器。
// 未知取值回退为 info/text。
func New(level, format string) *slog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter 同 New，输出到指定 writer，便于测试。
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
