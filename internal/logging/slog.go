package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// osStdout is swapped out by tests.
var osStdout io.Writer = os.Stdout

// Outputs selects where log records go. Nil writers are skipped.
type Outputs struct {
	// File receives text records; when nil, records go to stdout instead.
	File io.Writer
	// Graylog receives JSON records, one GELF message each.
	Graylog io.Writer
}

// SlogManager manages slog-based logging fanned out to a file, stdout and Graylog.
type SlogManager struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	provider ContextProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func handlerOptions(lvl slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// Setup initializes the logging system. Calling it again replaces the previous outputs.
func (m *SlogManager) Setup(out Outputs, level string) {
	lvl := parseLevel(level)
	opts := handlerOptions(lvl)

	var handlers []slog.Handler
	if out.File != nil {
		handlers = append(handlers, slog.NewTextHandler(out.File, opts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, opts))
	}
	if out.Graylog != nil {
		handlers = append(handlers, slog.NewJSONHandler(out.Graylog, opts))
	}

	m.mu.Lock()
	var h slog.Handler = NewMultiHandler(handlers...)
	if m.provider != nil {
		h = NewContextHandler(h, m.provider)
	}
	m.logger = slog.New(h)
	m.mu.Unlock()

	m.Logger().Debug("Logging initialized", "level", lvl.String())
}

// SetContextProvider injects dynamic attributes (project, run ID) into every record
// logged after the next Setup.
func (m *SlogManager) SetContextProvider(p ContextProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.provider = p
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// WriteLog writes a log entry with the specified function name, data, and level.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	m.mu.RLock()
	logger := m.logger
	m.mu.RUnlock()
	if logger == nil {
		return
	}

	switch parseLevel(level) {
	case slog.LevelDebug:
		logger.Debug(data, "function", functionName)
	case slog.LevelWarn:
		logger.Warn(data, "function", functionName)
	case slog.LevelError:
		logger.Error(data, "function", functionName)
	default:
		logger.Info(data, "function", functionName)
	}
}
