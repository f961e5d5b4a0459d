package logging

import (
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// EntryLeveller is a zapcore.Core that filters entries by logger name. A level set for "pulumi"
// also applies to "pulumi.events" unless that name has its own level; "" sets the fallback.
type EntryLeveller struct {
	zapcore.Core

	levels *sync.Map // map[string]zapcore.Level, also caches resolved names
}

func NewEntryLeveller(core zapcore.Core, levels map[string]zapcore.Level) *EntryLeveller {
	el := &EntryLeveller{Core: core, levels: &sync.Map{}}
	for name, lvl := range levels {
		el.levels.Store(name, lvl)
	}
	return el
}

// ParseLevels reads a comma separated list of name=level pairs such as
// "fabric=debug,pulumi.events=warn". Malformed pairs are skipped.
func ParseLevels(s string) map[string]zapcore.Level {
	levels := make(map[string]zapcore.Level)
	for _, pair := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		lvl, err := zapcore.ParseLevel(value)
		if err != nil {
			continue
		}
		levels[name] = lvl
	}
	return levels
}

func (el *EntryLeveller) With(f []zapcore.Field) zapcore.Core {
	return &EntryLeveller{Core: el.Core.With(f), levels: el.levels}
}

// levelFor finds the level of the closest configured ancestor of name.
func (el *EntryLeveller) levelFor(name string) (zapcore.Level, bool) {
	if lvl, ok := el.levels.Load(name); ok {
		return lvl.(zapcore.Level), true
	}
	for module := name; module != ""; {
		idx := strings.LastIndex(module, ".")
		if idx < 0 {
			module = ""
		} else {
			module = module[:idx]
		}
		if lvl, ok := el.levels.Load(module); ok {
			el.levels.Store(name, lvl)
			return lvl.(zapcore.Level), true
		}
	}
	return 0, false
}

func (el *EntryLeveller) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	lvl, ok := el.levelFor(e.LoggerName)
	if !ok {
		return el.Core.Check(e, ce)
	}
	if e.Level < lvl {
		return ce
	}
	return ce.AddCore(e, el)
}
