package archive

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/logger"
)

// badgerLogger routes badger's printf-style logging into slog.
// Badger is chatty at info level, so info and debug both go to debug.
type badgerLogger struct {
	l *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func newBadgerLogger(l *slog.Logger) *badgerLogger {
	if l == nil {
		l = logger.Default
	}
	return &badgerLogger{l: l.With("component", "archive")}
}

func msg(format string, args ...any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Errorf(format string, args ...any)   { b.l.Error(msg(format, args...)) }
func (b *badgerLogger) Warningf(format string, args ...any) { b.l.Warn(msg(format, args...)) }
func (b *badgerLogger) Infof(format string, args ...any)    { b.l.Debug(msg(format, args...)) }
func (b *badgerLogger) Debugf(format string, args ...any)   { b.l.Debug(msg(format, args...)) }
