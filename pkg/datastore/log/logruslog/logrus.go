// Package logruslog adapts a logrus entry to datastore.Logger.
package logruslog

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type LogrusLogger struct{ E *logrus.Entry }

// New adapts l to the datastore Logger.
func New(l *logrus.Logger) LogrusLogger { return LogrusLogger{E: logrus.NewEntry(l)} }

func (l LogrusLogger) Debug(msg string, args ...any) { l.E.WithFields(fields(args)).Debug(msg) }
func (l LogrusLogger) Info(msg string, args ...any)  { l.E.WithFields(fields(args)).Info(msg) }
func (l LogrusLogger) Warn(msg string, args ...any)  { l.E.WithFields(fields(args)).Warn(msg) }
func (l LogrusLogger) Error(msg string, args ...any) {
	l.E.WithFields(fields(args)).Error(msg)
}

func fields(args []any) logrus.Fields {
	f := make(logrus.Fields, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			f["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		f[key] = args[i+1]
	}
	return f
}
