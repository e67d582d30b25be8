package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
)

// acquisitionOptions mirrors the shape of the root command options.
type acquisitionOptions struct {
	Config       string
	Mode         string   `toml:"acquisition.mode" env:"MODE"`
	Framerate    int      `toml:"acquisition.framerate" env:"FRAMERATE"`
	Exposure     float64  `toml:"acquisition.exposure" env:"EXPOSURE"`
	Processing   bool     `toml:"output.processing" env:"PROCESSING"`
	CameraID     string   `toml:"acquisition.camera_id" env:"CAMERA_ID"`
	Tags         []string `toml:"output.tags" env:"TAGS"`
	AuthUsername string   `toml:"auth.username" env:"AUTH_USERNAME"`
	unexported   string   `toml:"auth.password"`
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "camnode.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const sampleTOML = `
[acquisition]
mode = "trigger"
framerate = 12
exposure = 2500
camera_id = "DEV_1AB22C00A1B2"

[output]
processing = true
tags = ["bench", "lab"]

[auth]
username = "operator"
password = "secret"
`

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &acquisitionOptions{Config: writeTemp(t, sampleTOML), Mode: "fixed", Framerate: 5}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	want := acquisitionOptions{
		Config:       opts.Config,
		Mode:         "trigger",
		Framerate:    12,
		Exposure:     2500,
		Processing:   true,
		CameraID:     "DEV_1AB22C00A1B2",
		Tags:         []string{"bench", "lab"},
		AuthUsername: "operator",
	}
	if !reflect.DeepEqual(*opts, want) {
		t.Errorf("options = %+v\nwant      %+v", *opts, want)
	}
}

func TestLoadConfigEnvOverridesTOML(t *testing.T) {
	t.Setenv("CAMNODE_MODE", "exposure")
	t.Setenv("CAMNODE_EXPOSURE", "812.5")
	t.Setenv("CAMNODE_PROCESSING", "false")
	t.Setenv("CAMNODE_TAGS", " night , roof ")
	t.Setenv("CAMNODE_FRAMERATE", "not a number")

	opts := &acquisitionOptions{Config: writeTemp(t, sampleTOML)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if opts.Mode != "exposure" || opts.Exposure != 812.5 || opts.Processing {
		t.Errorf("env did not override: %+v", opts)
	}
	if !reflect.DeepEqual(opts.Tags, []string{"night", "roof"}) {
		t.Errorf("tags = %q", opts.Tags)
	}
	if opts.Framerate != 12 {
		t.Errorf("unparsable env value replaced framerate: %d", opts.Framerate)
	}
	if opts.CameraID != "DEV_1AB22C00A1B2" {
		t.Errorf("camera id = %q, want the TOML value", opts.CameraID)
	}
}

func TestLoadConfigCLIWins(t *testing.T) {
	t.Setenv("CAMNODE_MODE", "exposure")

	opts := &acquisitionOptions{Config: writeTemp(t, sampleTOML)}
	cmd := &cobra.Command{Use: "camnode"}
	cmd.Flags().StringVar(&opts.Mode, "mode", "fixed", "")
	cmd.Flags().IntVar(&opts.Framerate, "framerate", 5, "")
	cmd.PersistentFlags().StringVar(&opts.CameraID, "camera-id", "", "")
	if err := cmd.ParseFlags([]string{"--mode", "trigger_keyboard", "--camera-id", "DEV_2"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	changed := ChangedFlags(cmd)
	if !changed["mode"] || !changed["camera-id"] || len(changed) != 2 {
		t.Errorf("ChangedFlags = %v", changed)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if opts.Mode != "trigger_keyboard" || opts.CameraID != "DEV_2" {
		t.Errorf("flag values overwritten: %+v", opts)
	}
	if opts.Framerate != 12 {
		t.Errorf("framerate = %d, want the TOML value for an unset flag", opts.Framerate)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	opts := &acquisitionOptions{Config: filepath.Join(t.TempDir(), "missing.toml"), Mode: "fixed"}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if opts.Mode != "fixed" {
		t.Errorf("mode = %q, want default kept", opts.Mode)
	}

	opts.Config = writeTemp(t, "[acquisition\nmode = ")
	if err := LoadConfig(opts, nil); err == nil {
		t.Error("invalid TOML: want error")
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"acquisition": map[string]any{
			"roi":  map[string]any{"width": int64(320)},
			"mode": "fixed",
		},
		"debug": true,
	}

	tests := []struct {
		path string
		want any
	}{
		{"debug", true},
		{"acquisition.mode", "fixed"},
		{"acquisition.roi.width", int64(320)},
		{"missing", nil},
		{"acquisition.missing", nil},
		{"debug.nested", nil},
	}
	for _, tt := range tests {
		if got := getNestedValue(data, tt.path); got != tt.want {
			t.Errorf("getNestedValue(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
	if got := getNestedValue(nil, "acquisition.mode"); got != nil {
		t.Errorf("nil tree = %v", got)
	}
}

func TestSetFieldValueTypeMismatch(t *testing.T) {
	opts := acquisitionOptions{Mode: "fixed", Framerate: 5, Exposure: 100}
	v := reflect.ValueOf(&opts).Elem()

	setFieldValue(v.FieldByName("Mode"), int64(3))
	setFieldValue(v.FieldByName("Framerate"), "fast")
	setFieldValue(v.FieldByName("Exposure"), int64(400))
	setFieldValue(v.FieldByName("Tags"), []any{"a", 1, "b"})

	if opts.Mode != "fixed" || opts.Framerate != 5 {
		t.Errorf("mismatched values applied: %+v", opts)
	}
	if opts.Exposure != 400 {
		t.Errorf("integer TOML value for float field: %v", opts.Exposure)
	}
	if !reflect.DeepEqual(opts.Tags, []string{"a", "b"}) {
		t.Errorf("tags = %q", opts.Tags)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Output":       "output",
		"LoggingLevel": "logging-level",
		"CameraID":     "camera-id",
		"HTTP":         "http",
		"Framerate":    "framerate",
		"AuthUsername": "auth-username",
		"ROI":          "roi",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeTemp(t, `
[logging]
level = "warn"
format = "json"
acquisition = "debug"
frames = "info"
timing = true
debug = false
`)
	cfg := LoadLoggingConfig(path)
	if cfg.Level != "warn" || cfg.Format != "json" {
		t.Errorf("level/format = %q/%q", cfg.Level, cfg.Format)
	}
	want := map[string]string{"acquisition": "debug", "frames": "info"}
	if !reflect.DeepEqual(cfg.Modules, want) {
		t.Errorf("modules = %v, want %v", cfg.Modules, want)
	}

	defaults := LoadLoggingConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if defaults.Level != "info" || defaults.Format != "text" || len(defaults.Modules) != 0 {
		t.Errorf("defaults = %+v", defaults)
	}
}
