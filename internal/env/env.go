// Package env reads ENIGMA_* variables and accepts retired names for a
// deprecation period.
package env

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	warnMu     sync.Mutex
	warnLogger func(msg string, args ...any) = func(msg string, args ...any) { slog.Default().Warn(msg, args...) }
	warnedKeys sync.Map
)

// Lookup returns the trimmed value of key. When key is unset, each legacy
// name is tried in order and the first one present is returned with a
// deprecation warning, logged once per legacy name. Blank values count as
// unset.
func Lookup(key string, legacy ...string) (string, bool) {
	if v, ok := nonEmpty(key); ok {
		return v, true
	}
	for _, old := range legacy {
		if v, ok := nonEmpty(old); ok {
			logDeprecated(old, key)
			return v, true
		}
	}
	return "", false
}

func nonEmpty(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func logDeprecated(oldKey, newKey string) {
	onceIface, _ := warnedKeys.LoadOrStore(oldKey, &sync.Once{})
	once := onceIface.(*sync.Once)
	once.Do(func() {
		warnMu.Lock()
		logger := warnLogger
		warnMu.Unlock()
		logger("deprecated environment variable", "old", oldKey, "new", newKey)
	})
}

// ResetWarningsForTesting clears the cached once guards so tests can verify
// warning behaviour deterministically.
func ResetWarningsForTesting() {
	warnMu.Lock()
	warnedKeys = sync.Map{}
	warnMu.Unlock()
}

// SetWarnLoggerForTesting swaps the logger used for warnings. The returned
// function restores the previous logger and should be deferred in tests.
func SetWarnLoggerForTesting(fn func(msg string, args ...any)) (restore func()) {
	warnMu.Lock()
	previous := warnLogger
	warnLogger = fn
	warnMu.Unlock()
	return func() {
		warnMu.Lock()
		warnLogger = previous
		warnMu.Unlock()
	}
}
