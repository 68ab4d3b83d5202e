package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// Component loggers are derived from the global logger on first use and
// cached until the global logger changes.
var components = struct {
	sync.Mutex
	cache  map[string]*Logger
	levels map[string]zerolog.Level
}{cache: make(map[string]*Logger)}

// Get returns the logger for a component, tagged with its name and
// filtered at its configured level.
func Get(name string) *Logger {
	components.Lock()
	defer components.Unlock()
	if l, ok := components.cache[name]; ok {
		return l
	}
	l := GetGlobalLogger().WithComponent(name)
	if lvl, ok := components.levels[name]; ok {
		l = &Logger{logger: l.logger.Level(lvl), service: l.service}
	}
	components.cache[name] = l
	return l
}

// setComponentLevels replaces the per-component levels and drops every
// cached logger.
func setComponentLevels(cfg map[string]string) {
	levels := make(map[string]zerolog.Level, len(cfg))
	for name, s := range cfg {
		if lvl, err := zerolog.ParseLevel(s); err == nil {
			levels[name] = lvl
		}
	}
	components.Lock()
	components.levels = levels
	components.cache = make(map[string]*Logger)
	components.Unlock()
}

func dropComponents() {
	components.Lock()
	components.cache = make(map[string]*Logger)
	components.Unlock()
}
