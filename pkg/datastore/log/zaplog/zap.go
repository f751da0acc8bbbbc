// Package zaplog adapts a zap logger to datastore.Logger.
package zaplog

import (
	"fmt"

	"go.uber.org/zap"
)

type ZapLogger struct{ L *zap.Logger }

// New adapts l to the datastore Logger.
func New(l *zap.Logger) ZapLogger { return ZapLogger{L: l} }

func (z ZapLogger) Debug(msg string, args ...any) { z.L.Debug(msg, fields(args)...) }
func (z ZapLogger) Info(msg string, args ...any)  { z.L.Info(msg, fields(args)...) }
func (z ZapLogger) Warn(msg string, args ...any)  { z.L.Warn(msg, fields(args)...) }
func (z ZapLogger) Error(msg string, args ...any) { z.L.Error(msg, fields(args)...) }

// fields turns alternating key/value args into zap fields. A trailing key
// without a value is logged under "!BADKEY", as slog does.
func fields(args []any) []zap.Field {
	if len(args) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			out = append(out, zap.Any("!BADKEY", args[i]))
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if err, isErr := args[i+1].(error); isErr {
			out = append(out, zap.NamedError(key, err))
			continue
		}
		out = append(out, zap.Any(key, args[i+1]))
	}
	return out
}
