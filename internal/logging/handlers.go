package logging

import (
	"context"
	"errors"
	"log/slog"
)

// scope is the attribute and group context shared by the custom handlers.
type scope struct {
	attrs  []slog.Attr
	groups []string
}

func (s scope) withAttrs(attrs []slog.Attr) scope {
	// Attrs added inside a group belong to that group.
	if len(s.groups) > 0 {
		attrs = []slog.Attr{nest(s.groups, attrs)}
	}
	return scope{attrs: append(s.attrs[:len(s.attrs):len(s.attrs)], attrs...), groups: s.groups}
}

func (s scope) withGroup(name string) scope {
	if name == "" {
		return s
	}
	return scope{attrs: s.attrs, groups: append(s.groups[:len(s.groups):len(s.groups)], name)}
}

// each visits scope attrs followed by the record's, with record attrs
// nested under the open groups.
func (s scope) each(r slog.Record, fn func(slog.Attr)) {
	for _, a := range s.attrs {
		fn(a)
	}
	if r.NumAttrs() == 0 {
		return
	}
	var recAttrs []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		recAttrs = append(recAttrs, a)
		return true
	})
	if len(s.groups) > 0 {
		fn(nest(s.groups, recAttrs))
		return
	}
	for _, a := range recAttrs {
		fn(a)
	}
}

func nest(groups []string, attrs []slog.Attr) slog.Attr {
	a := slog.Attr{Key: groups[len(groups)-1], Value: slog.GroupValue(attrs...)}
	for i := len(groups) - 2; i >= 0; i-- {
		a = slog.Attr{Key: groups[i], Value: slog.GroupValue(a)}
	}
	return a
}

// walk calls fn for every leaf attribute with its group path.
func walk(a slog.Attr, path []string, fn func(path []string, v slog.Value)) {
	if a.Equal(slog.Attr{}) {
		return
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		if a.Key != "" {
			path = append(path[:len(path):len(path)], a.Key)
		}
		for _, ga := range v.Group() {
			walk(ga, path, fn)
		}
		return
	}
	fn(append(path[:len(path):len(path)], a.Key), v)
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}

// fanout sends each record to every handler enabled for its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
