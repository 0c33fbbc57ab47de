// Package stacktrace trims goroutine dumps to the frames of this module.
package stacktrace

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"
)

// InternalPaths returns the "internal/...go:line" frames of a raw stack trace.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines)/2)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ".go:")
		if idx == -1 || !strings.Contains(line, "/internal/") {
			continue
		}

		end := strings.IndexByte(line[idx:], ' ')
		if end == -1 {
			end = len(line)
		} else {
			end += idx
		}

		short := line[:end]
		if i := strings.Index(short, "/internal/"); i != -1 {
			paths = append(paths, short[i+1:])
		}
	}

	return paths
}

// LogPanic logs a recovered value with the current stack, trimmed to
// internal frames when there are any.
func LogPanic(ctx context.Context, msg string, rvr any, attrs ...any) {
	stack := debug.Stack()

	var frames any = string(stack)
	if paths := InternalPaths(stack); len(paths) > 0 {
		frames = paths
	}

	slog.ErrorContext(ctx, msg, append(attrs, "panic", rvr, "stack", frames)...)
}
