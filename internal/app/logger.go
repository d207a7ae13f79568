package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the portal's root logger. LOG_FORMAT=json selects the
// JSON handler for shipped logs; any other value keeps the human-readable
// text handler used in development. Source locations are attached either way.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
