package platform

import (
	"context"
	"log/slog"

	"github.com/LavishGent/datastore/internal/types"
)

// NewSlogLogger routes slog records to a types.Logger.
func NewSlogLogger(l types.Logger) *slog.Logger {
	return slog.New(slogAdapter{logger: l})
}

// slogAdapter is a slog.Handler over types.Logger. Group names become
// dotted key prefixes.
type slogAdapter struct {
	attrs  []slog.Attr
	logger types.Logger
	group  string
}

func (a slogAdapter) Enabled(context.Context, slog.Level) bool {
	return true
}

//nolint:gocritic // slog.Handler passes Record by value
func (a slogAdapter) Handle(_ context.Context, r slog.Record) error {
	args := make([]any, 0, (len(a.attrs)+r.NumAttrs())*2)
	for _, attr := range a.attrs {
		args = append(args, attr.Key, attr.Value.Any())
	}
	r.Attrs(func(attr slog.Attr) bool {
		args = append(args, a.key(attr.Key), attr.Value.Any())
		return true
	})

	switch {
	case r.Level >= slog.LevelError:
		a.logger.Error(r.Message, args...)
	case r.Level >= slog.LevelWarn:
		a.logger.Warn(r.Message, args...)
	case r.Level >= slog.LevelInfo:
		a.logger.Info(r.Message, args...)
	default:
		a.logger.Debug(r.Message, args...)
	}
	return nil
}

func (a slogAdapter) key(k string) string {
	if a.group == "" {
		return k
	}
	return a.group + "." + k
}

func (a slogAdapter) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Attr, len(a.attrs), len(a.attrs)+len(attrs))
	copy(next, a.attrs)
	for _, attr := range attrs {
		next = append(next, slog.Attr{Key: a.key(attr.Key), Value: attr.Value})
	}
	return slogAdapter{logger: a.logger, attrs: next, group: a.group}
}

func (a slogAdapter) WithGroup(name string) slog.Handler {
	if name == "" {
		return a
	}
	return slogAdapter{logger: a.logger, attrs: a.attrs, group: a.key(name)}
}
