package logging

import (
	"log/slog"
	"slices"
	"strings"
	"time"
)

const moduleKey = "module"

// attrScope holds what WithAttrs and WithGroup accumulated on a handler.
// Every attribute remembers the group path that was open when it was added.
type attrScope struct {
	attrs  []scopedAttr
	groups []string
}

type scopedAttr struct {
	path []string
	attr slog.Attr
}

func (s attrScope) withAttrs(attrs []slog.Attr) attrScope {
	out := attrScope{groups: s.groups}
	out.attrs = make([]scopedAttr, 0, len(s.attrs)+len(attrs))
	out.attrs = append(out.attrs, s.attrs...)
	for _, a := range attrs {
		out.attrs = append(out.attrs, scopedAttr{path: s.groups, attr: a})
	}
	return out
}

func (s attrScope) withGroup(name string) attrScope {
	if name == "" {
		return s
	}
	return attrScope{attrs: s.attrs, groups: append(slices.Clip(s.groups), name)}
}

// walk calls fn for every leaf attribute, handler attributes first, then the
// record's. Groups are flattened into path and empty attributes are dropped.
func (s attrScope) walk(r slog.Record, fn func(path []string, a slog.Attr)) {
	for _, sa := range s.attrs {
		visitAttr(sa.path, sa.attr, fn)
	}
	r.Attrs(func(a slog.Attr) bool {
		visitAttr(s.groups, a, fn)
		return true
	})
}

func visitAttr(path []string, a slog.Attr, fn func([]string, slog.Attr)) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() != slog.KindGroup {
		fn(path, a)
		return
	}
	sub := path
	if a.Key != "" {
		sub = append(slices.Clip(path), a.Key)
	}
	for _, ga := range a.Value.Group() {
		visitAttr(sub, ga, fn)
	}
}

// isModule reports whether a is the top-level module attribute set by GetLogger.
func isModule(path []string, a slog.Attr) bool {
	return len(path) == 0 && a.Key == moduleKey
}

func joinKey(path []string, key, sep string) string {
	if len(path) == 0 {
		return key
	}
	return strings.Join(path, sep) + sep + key
}

// valueText renders a resolved value for line-oriented outputs.
func valueText(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.String()
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
