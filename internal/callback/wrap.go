// Package callback guards timer and ticker callbacks.
package callback

import (
	"log/slog"
)

// Recover logs and swallows a panic. Use it as `defer callback.Recover(name)`.
func Recover(name string) {
	if err := recover(); err != nil {
		slog.Error("callback panic", "name", name, "error", err)
	}
}

// Guard wraps f so a panic inside it is logged instead of crashing the timer goroutine.
func Guard(name string, f func()) func() {
	return func() {
		defer Recover(name)
		slog.Debug("callback start", "name", name)
		f()
	}
}
