package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultBufferSize = 1000

// FramesModule is the module carrying the per-frame capture lines.
const FramesModule = "frames"

// Session file rotation limits.
const (
	fileMaxSizeMB  = 100
	fileMaxBackups = 5
)

// Logger is the subset of *slog.Logger that packages taking an injected logger need.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var (
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	moduleRoots     = make(map[string]*atomic.Pointer[slog.Handler])
	globalConfig    Config
	globalLevelVar  = &slog.LevelVar{}
	isInitialized   bool
	mutex           sync.RWMutex
	logBuffer       *RingBuffer
	logCallback     LogCallback
	fileWriter      *lumberjack.Logger
)

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`

	// Timing keeps only frame timing output: every module except
	// FramesModule is raised to warn.
	Timing bool `toml:"timing"`

	// File also receives every record in the session log line format.
	File string `toml:"file"`
}

// Initialize applies config. Loggers handed out earlier keep their identity;
// their levels are updated and their handler chains rebuilt underneath.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = config
	isInitialized = true
	logBuffer = NewRingBuffer(defaultBufferSize)

	if fileWriter != nil {
		_ = fileWriter.Close()
		fileWriter = nil
	}
	if config.File != "" {
		fileWriter = &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			LocalTime:  true,
		}
	}

	for module, levelVar := range moduleLevelVars {
		levelVar.Set(levelFor(config, module))
		h := createHandler(config.Format, levelVar)
		moduleRoots[module].Store(&h)
	}

	globalLevelVar.Set(levelFor(config, ""))
	slog.SetDefault(slog.New(createHandler(config.Format, globalLevelVar)))
}

// Close flushes and closes the session log file, if any.
func Close() error {
	mutex.Lock()
	defer mutex.Unlock()
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}

// GetBuffer returns the log ring buffer for reading historical logs.
func GetBuffer() *RingBuffer {
	mutex.RLock()
	defer mutex.RUnlock()
	return logBuffer
}

// SetLogCallback sets a callback to be called for each new log entry.
// Used for publishing log events to SSE clients.
func SetLogCallback(callback LogCallback) {
	mutex.Lock()
	defer mutex.Unlock()
	logCallback = callback
}

// GetLogger returns the logger of module, creating it on first use. Its level
// follows Initialize even when it was created before.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	logger, ok := moduleLoggers[module]
	mutex.RUnlock()
	if ok {
		return logger
	}

	mutex.Lock()
	defer mutex.Unlock()
	if logger, ok := moduleLoggers[module]; ok {
		return logger
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(levelFor(globalConfig, module))
	format := "text"
	if isInitialized {
		format = globalConfig.Format
	}
	live, root := newLiveHandler(createHandler(format, levelVar))
	logger = slog.New(live).With(moduleKey, module)
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	moduleRoots[module] = root
	return logger
}

// levelFor resolves the effective level of module. The empty module is the
// default logger.
func levelFor(config Config, module string) slog.Level {
	level := slog.LevelInfo
	if parsed := parseLevel(config.Level); parsed != nil {
		level = *parsed
	}
	if levelStr, exists := config.Modules[module]; exists && module != "" {
		if parsed := parseLevel(levelStr); parsed != nil {
			level = *parsed
		}
	}
	if config.Timing {
		if module == FramesModule {
			return min(level, slog.LevelInfo)
		}
		return max(level, slog.LevelWarn)
	}
	return level
}

// createHandler builds the handler chain for one logger: stdout when something
// reads it, the journal when reachable, the session file when configured and
// always the ring buffer. Must be called with mutex held.
func createHandler(format string, level slog.Leveler) slog.Handler {
	var chain MultiHandler
	if isStdoutAvailable() {
		opts := &slog.HandlerOptions{Level: level}
		if format == "json" {
			chain = append(chain, slog.NewJSONHandler(os.Stdout, opts))
		} else {
			chain = append(chain, slog.NewTextHandler(os.Stdout, opts))
		}
	}
	if IsJournalAvailable() {
		chain = append(chain, NewJournalHandler(level))
	}
	if fileWriter != nil {
		chain = append(chain, NewFileHandler(fileWriter, level))
	}
	chain = append(chain, NewBufferHandler(level))

	if len(chain) == 1 {
		return chain[0]
	}
	return chain
}

// isStdoutAvailable is false when stdout is closed or a device such as /dev/null.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&(os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0 || mode.IsRegular()
}

// parseLevel returns nil for names it does not know.
func parseLevel(name string) *slog.Level {
	var level slog.Level
	switch strings.ToLower(name) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil
	}
	return &level
}
