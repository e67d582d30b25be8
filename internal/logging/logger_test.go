package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// resetState clears every package global so each test starts uninitialized.
func resetState(t *testing.T) {
	t.Helper()
	_ = Close()
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	moduleRoots = make(map[string]*atomic.Pointer[slog.Handler])
	isInitialized = false
	globalConfig = Config{}
	logBuffer = nil
	logCallback = nil
	mutex.Unlock()
	t.Cleanup(func() { _ = Close() })
}

func enabledLevels(l *slog.Logger) (debug, info, warn bool) {
	h := l.Handler()
	ctx := context.Background()
	return h.Enabled(ctx, slog.LevelDebug), h.Enabled(ctx, slog.LevelInfo), h.Enabled(ctx, slog.LevelWarn)
}

func TestModuleLevelOverride(t *testing.T) {
	resetState(t)

	// Initialize with global info level, but acquisition module at debug
	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"acquisition": "debug",
			"api":         "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"acquisition", true, true, true},
		{"api", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			gotDebug, gotInfo, gotWarn := enabledLevels(GetLogger(tt.module))
			if gotDebug != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, gotDebug, tt.wantDebug)
			}
			if gotInfo != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, gotInfo, tt.wantInfo)
			}
			if gotWarn != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, gotWarn, tt.wantWarn)
			}
		})
	}
}

func TestTimingKeepsOnlyFrames(t *testing.T) {
	resetState(t)
	Initialize(Config{Level: "info", Timing: true, Modules: map[string]string{"persist": "debug"}})

	if _, info, _ := enabledLevels(GetLogger(FramesModule)); !info {
		t.Error("frames module should log info in timing mode")
	}
	for _, module := range []string{"acquisition", "persist", "api"} {
		_, info, warn := enabledLevels(GetLogger(module))
		if info || !warn {
			t.Errorf("module %q: info=%v warn=%v, want warn only in timing mode", module, info, warn)
		}
	}
	if slog.Default().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("default logger should be at warn in timing mode")
	}
}

func TestDebugRaisesEveryModule(t *testing.T) {
	resetState(t)
	before := GetLogger("persist")
	Initialize(Config{Level: "debug"})

	for _, l := range []*slog.Logger{before, GetLogger("acquisition"), GetLogger(FramesModule)} {
		if debug, _, _ := enabledLevels(l); !debug {
			t.Error("debug should be enabled for every module")
		}
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	// Create two handlers - one with debug, one with info
	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	multi := NewMultiHandler(debugHandler, infoHandler)
	logger := slog.New(multi).With("module", "test")

	// Write debug log - should appear once (from debugHandler)
	logger.Debug("debug only message")

	output := buf.String()
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("Expected 1 debug message, got %d. Output: %s", count, output)
	}

	logger.Info("info message")
	if count := strings.Count(buf.String(), "info message"); count != 2 {
		t.Errorf("Expected info message from both handlers, got %d", count)
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState(t)

	// Get logger BEFORE Initialize - should default to info level
	loggerBefore := GetLogger("frames")
	if debug, _, _ := enabledLevels(loggerBefore); debug {
		t.Error("Logger created before Initialize should NOT have debug enabled")
	}

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"frames": "debug",
		},
	})

	// Same logger (cached), level updated through its LevelVar
	loggerAfter := GetLogger("frames")
	if loggerBefore != loggerAfter {
		t.Error("Logger should be cached - same pointer before and after Initialize")
	}
	if !loggerBefore.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Cached logger should have debug enabled after Initialize updates LevelVar")
	}
}

func TestSessionFile(t *testing.T) {
	resetState(t)
	path := filepath.Join(t.TempDir(), "camnode_log.txt")
	Initialize(Config{Level: "info", File: path})

	GetLogger(FramesModule).Info("Frame captured", "seq", 1, "frame_id", 7)
	GetLogger("acquisition").Debug("not written")
	GetLogger("acquisition").Error("Could not start acquisition", "error", errors.New("device busy"))
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read session file: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("session file has %d lines, want 2:\n%s", len(lines), data)
	}
	want := []*regexp.Regexp{
		regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3} - INFO\] Frame captured seq=1 frame_id=7$`),
		regexp.MustCompile(`^\[[^]]+ - ERROR\] Could not start acquisition error="device busy"$`),
	}
	for i, re := range want {
		if !re.MatchString(lines[i]) {
			t.Errorf("line %d = %q, want match for %s", i, lines[i], re)
		}
	}
}

func TestEarlyLoggerReachesSessionFile(t *testing.T) {
	resetState(t)
	early := GetLogger("acquisition").With("camera", "cam0")

	path := filepath.Join(t.TempDir(), "camnode_log.txt")
	Initialize(Config{Level: "info", File: path})
	early.Info("Acquisition started")
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read session file: %v", err)
	}
	if !strings.Contains(string(data), "Acquisition started camera=cam0") {
		t.Errorf("session file = %q, want the early logger's record", data)
	}
}

func TestFileHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	h := NewFileHandler(&buf, slog.LevelDebug)
	logger := slog.New(h).With("module", "persist", "camera", "DEV_1")

	ts := time.Date(2025, 9, 26, 12, 52, 18, 42_000_000, time.Local)
	r := slog.NewRecord(ts, slog.LevelWarn, "Frame write failed", 0)
	r.AddAttrs(slog.String("path", "/tmp/a b.png"), slog.Group("queue", slog.Int("depth", 3)))
	if err := logger.Handler().Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	want := `[2025-09-26 12:52:18.042 - WARN] Frame write failed camera=DEV_1 path="/tmp/a b.png" queue.depth=3` + "\n"
	if buf.String() != want {
		t.Errorf("line = %q\nwant   %q", buf.String(), want)
	}

	if h.Enabled(context.Background(), slog.LevelDebug-1) {
		t.Error("handler enabled below its level")
	}
}

func TestBufferAndCallback(t *testing.T) {
	resetState(t)
	Initialize(Config{Level: "info"})

	var got []LogEntry
	SetLogCallback(func(e LogEntry) { got = append(got, e) })
	defer SetLogCallback(nil)

	GetLogger("acquisition").Info("Started image acquisition", "buffers", 5)

	entries := GetBuffer().ReadAll()
	if len(entries) == 0 {
		t.Fatal("ring buffer is empty")
	}
	last := entries[len(entries)-1]
	if last.Module != "acquisition" || last.Level != "info" || last.Message != "Started image acquisition" {
		t.Errorf("entry = %+v", last)
	}
	if last.Attributes["buffers"] != int64(5) {
		t.Errorf("buffers attribute = %#v", last.Attributes["buffers"])
	}
	if len(got) != 1 || got[0].Message != last.Message {
		t.Errorf("callback saw %d entries", len(got))
	}
	if last.Seq == 0 || got[0].Seq != last.Seq {
		t.Errorf("callback seq = %d, buffer seq = %d", got[0].Seq, last.Seq)
	}
}

func TestRingBufferWraps(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := range 5 {
		rb.Write(LogEntry{Message: string(rune('a' + i))})
	}
	entries := rb.ReadAll()
	if rb.Count() != 3 || len(entries) != 3 {
		t.Fatalf("count = %d, entries = %d", rb.Count(), len(entries))
	}
	var msgs []string
	for _, e := range entries {
		msgs = append(msgs, e.Message)
	}
	if strings.Join(msgs, "") != "cde" {
		t.Errorf("entries = %v, want oldest-first c d e", msgs)
	}
}

func TestRingBufferTail(t *testing.T) {
	rb := NewRingBuffer(4)
	if rb.Tail(2) != nil || rb.LastSeq() != 0 {
		t.Fatal("empty buffer should have no tail")
	}
	for i := range 6 {
		if e := rb.Write(LogEntry{Message: string(rune('a' + i))}); e.Seq != uint64(i+1) {
			t.Fatalf("write %d got seq %d", i, e.Seq)
		}
	}

	tests := []struct {
		n    int
		want []uint64
	}{
		{2, []uint64{5, 6}},
		{4, []uint64{3, 4, 5, 6}},
		{10, []uint64{3, 4, 5, 6}},
		{0, []uint64{3, 4, 5, 6}},
	}
	for _, tt := range tests {
		var seqs []uint64
		for _, e := range rb.Tail(tt.n) {
			seqs = append(seqs, e.Seq)
		}
		if !slices.Equal(seqs, tt.want) {
			t.Errorf("Tail(%d) = %v, want %v", tt.n, seqs, tt.want)
		}
	}
	if rb.LastSeq() != 6 {
		t.Errorf("LastSeq = %d, want 6", rb.LastSeq())
	}
}

func TestGroupsApplyToLaterAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewFileHandler(&buf, slog.LevelInfo)).
		With("camera", "DEV_1").
		WithGroup("roi").
		With("width", 320)
	logger.Info("Configured", "height", 240)

	if !strings.HasSuffix(buf.String(), "] Configured camera=DEV_1 roi.width=320 roi.height=240\n") {
		t.Errorf("line = %q", buf.String())
	}
}

func TestJournalField(t *testing.T) {
	tests := map[string]string{
		"module":      "MODULE",
		"queue_depth": "QUEUE_DEPTH",
		"roi.width":   "ROI_WIDTH",
		"_private":    "PRIVATE",
		"frame-id":    "FRAME_ID",
		"__":          "",
	}
	for in, want := range tests {
		if got := journalField(in); got != want {
			t.Errorf("journalField(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			if tt.isNil {
				if got != nil {
					t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
