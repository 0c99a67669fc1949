// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package badger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// badgerLogger adapts a slog.Logger to badger.Logger. Badger reports
// routine compaction and value log progress at info, which is noise next to
// the vault's own logs, so those messages are demoted to debug.
type badgerLogger struct {
	log *slog.Logger
}

func newBadgerLogger(l *slog.Logger) badgerLogger {
	if l == nil {
		l = slog.Default()
	}
	return badgerLogger{l.With("module", "badger")}
}

func (l badgerLogger) emit(level slog.Level, format string, args []interface{}) {
	ctx := context.Background()
	if !l.log.Enabled(ctx, level) {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	l.log.Log(ctx, level, msg)
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.emit(slog.LevelError, format, args)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.emit(slog.LevelWarn, format, args)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.emit(slog.LevelDebug, format, args)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.emit(slog.LevelDebug-4, format, args)
}
