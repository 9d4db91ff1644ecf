package logger

import "sync"

var named = struct {
	sync.RWMutex
	loggers map[string]*Logger
}{loggers: make(map[string]*Logger)}

// Register stores a named logger.
func Register(name string, l *Logger) {
	named.Lock()
	named.loggers[name] = l
	named.Unlock()
}

// Get returns the logger registered under name, or the global logger tagged
// with name as its component.
func Get(name string) *Logger {
	named.RLock()
	l, ok := named.loggers[name]
	named.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}
