// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/rs/zerolog"
)

const messageKey = "message"

// SlogConfig configures the levels of a handler. Records with a module
// attribute are filtered by that module's level, if one is set.
type SlogConfig struct {
	DefaultLevel slog.Level
	ModuleLevels map[string]slog.Level
}

// ParseLevels parses a level spec such as "info;vault=debug;badger=error".
// An entry without a module sets the default level.
func ParseLevels(s string) (SlogConfig, error) {
	cfg := SlogConfig{DefaultLevel: slog.LevelInfo, ModuleLevels: map[string]slog.Level{}}
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		module, level, ok := strings.Cut(part, "=")
		if !ok {
			module, level = "", module
		}
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
			return SlogConfig{}, errors.BadRequest.WithFormat("invalid log level %q: %w", level, err)
		}
		if module == "" {
			cfg.DefaultLevel = l
		} else {
			cfg.ModuleLevels[strings.ToLower(strings.TrimSpace(module))] = l
		}
	}
	return cfg, nil
}

// NewSlogHandler returns a handler that writes JSON records to w, filtered
// by the module levels of cfg. Wrap w with [ConsoleSlogWriter] for pretty
// output.
func NewSlogHandler(cfg SlogConfig, w io.Writer) (slog.Handler, error) {
	if w == nil {
		return nil, errors.BadRequest.With("missing writer")
	}

	lowest := cfg.DefaultLevel
	modules := map[string]slog.Level{}
	for m, l := range cfg.ModuleLevels {
		modules[strings.ToLower(m)] = l
		if l < lowest {
			lowest = l
		}
	}

	opts := &slog.HandlerOptions{
		Level: lowest,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 || a.Key != slog.MessageKey {
				return a
			}
			if a.Value.Kind() == slog.KindString {
				return slog.Any(messageKey, a.Value)
			}
			return slog.String(messageKey, fmt.Sprint(a.Value.Any()))
		},
	}

	return &logHandler{
		handler:      slog.NewJSONHandler(w, opts),
		defaultLevel: cfg.DefaultLevel,
		lowestLevel:  lowest,
		modules:      modules,
	}, nil
}

// ConsoleSlogWriter uses zerolog's console writer to render JSON records as
// human-readable lines.
func ConsoleSlogWriter(w io.Writer, color bool) io.Writer {
	return &zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !color,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i interface{}) string {
			if ll, ok := i.(string); ok {
				return strings.ToUpper(ll)
			}
			return "????"
		},
		FormatMessage: func(i interface{}) string {
			s, ok := i.(string)
			if ok {
				return s
			}
			return fmt.Sprint(i)
		},
	}
}

type logHandler struct {
	handler      slog.Handler
	defaultLevel slog.Level
	lowestLevel  slog.Level
	modules      map[string]slog.Level

	// level is the level set by a module attribute bound via WithAttrs
	level *slog.Level
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	i := *h
	i.handler = h.handler.WithAttrs(attrs)
	if l, ok := h.moduleLevel(attrs); ok {
		i.level = &l
	}
	return &i
}

func (h *logHandler) WithGroup(name string) slog.Handler {
	i := *h
	i.handler = h.handler.WithGroup(name)
	return &i
}

func (h *logHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.lowestLevel {
		return false
	}
	if h.level != nil && level < *h.level {
		return false
	}
	if l, ok := h.moduleLevel(Attrs(ctx)); ok && level < l {
		return false
	}
	return h.handler.Enabled(ctx, level)
}

func (h *logHandler) Handle(ctx context.Context, record slog.Record) error {
	level := h.defaultLevel
	if h.level != nil {
		level = *h.level
	}

	attrs := Attrs(ctx)
	if l, ok := h.moduleLevel(attrs); ok {
		level = l
	}
	record.Attrs(func(a slog.Attr) bool {
		if l, ok := h.moduleLevel([]slog.Attr{a}); ok {
			level = l
			return false
		}
		return true
	})
	if record.Level < level {
		return nil
	}

	if len(attrs) > 0 {
		record = record.Clone()
		record.AddAttrs(attrs...)
	}
	return h.handler.Handle(ctx, record)
}

func (h *logHandler) moduleLevel(attrs []slog.Attr) (slog.Level, bool) {
	for _, a := range attrs {
		if a.Key != "module" {
			continue
		}
		l, ok := h.modules[strings.ToLower(a.Value.String())]
		return l, ok
	}
	return 0, false
}
