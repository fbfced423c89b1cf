// Package logger はプロセス全体で使う slog.Logger を構築します。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// FormatText はkey=value形式の出力です。
	FormatText = "text"
	// FormatJSON は1行1JSONの出力です。
	FormatJSON = "json"
)

// ParseLevel converts string (debug|info|warn|error) to slog.Level. Unknown → info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New は w に出力するロガーを生成します。format が json 以外の場合はテキスト形式です。
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Setup は標準エラー出力向けのロガーを生成し、slog.Default に設定します。
func Setup(level, format string) *slog.Logger {
	l := New(os.Stderr, level, format)
	slog.SetDefault(l)
	return l
}
