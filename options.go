package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/smazurov/camnode/internal/acquisition"
	"github.com/smazurov/camnode/internal/affinity"
	"github.com/smazurov/camnode/internal/persist"
)

// outputTimeLayout names the default capture directory.
const outputTimeLayout = "2006-01-02_150405"

// logFileName is the session log written inside the output directory.
const logFileName = "camnode_log.txt"

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `doc:"Path to configuration file" short:"c" default:"camnode.toml"`

	// Acquisition settings
	Output    string `doc:"Directory for captured frames (default captures/<timestamp>)" short:"o" toml:"acquisition.output" env:"OUTPUT"`
	Mode      string `doc:"Acquisition mode: fixed, trigger, trigger_keyboard or exposure" short:"m" default:"fixed" toml:"acquisition.mode" env:"MODE"`
	Framerate int    `doc:"Frames per second in fixed and trigger modes (1-30)" short:"f" default:"5" toml:"acquisition.framerate" env:"FRAMERATE"`
	Exposure  int    `doc:"Exposure time in microseconds (exposure mode)" short:"e" default:"100000" toml:"acquisition.exposure" env:"EXPOSURE"`
	ROI       string `doc:"Region of interest: full, 1/4, 1/16 or width,height,offsetX,offsetY" short:"r" toml:"acquisition.roi" env:"ROI"`
	CameraID  string `doc:"Camera identifier to open" toml:"acquisition.camera_id" env:"CAMERA_ID"`
	Buffers   int    `doc:"Number of device frame buffers" default:"5" toml:"acquisition.buffers" env:"BUFFERS"`
	Core      int    `doc:"CPU core to pin acquisition to (-1 disables pinning)" default:"-1" toml:"acquisition.core" env:"CORE"`

	// Output settings
	Processing bool   `doc:"Convert frames to an image format instead of saving raw buffers" short:"p" toml:"output.processing" env:"PROCESSING"`
	Format     string `doc:"Image format used with --processing (png, tiff)" default:"png" toml:"output.format" env:"FORMAT"`

	// Server settings
	HTTP         string `doc:"Listen address for the HTTP API, e.g. :8090 (empty disables)" toml:"server.http" env:"HTTP"`
	AuthUsername string `doc:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `doc:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`
	CORSOrigins  string `doc:"Comma-separated origins allowed to call the HTTP API (empty allows any)" toml:"server.cors_origins" env:"CORS_ORIGINS"`

	// Logging settings
	Debug         bool   `doc:"Enable debug logging" short:"d" toml:"logging.debug" env:"DEBUG"`
	Timing        bool   `doc:"Log only frame timing lines (every other module at warn)" short:"t" toml:"logging.timing" env:"TIMING"`
	LoggingLevel  string `doc:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `doc:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
}

// plan is the validated form of Options.
type plan struct {
	mode   acquisition.Mode
	roi    acquisition.ROI
	format persist.Format
	output string
}

func usesFrameRate(m acquisition.Mode) bool {
	return m == acquisition.ModeFixedRate || m == acquisition.ModeSoftwareTriggerPolled
}

// resolveOptions validates opts. Every error here is reported before the
// camera is opened.
func resolveOptions(opts *Options, now time.Time) (plan, error) {
	mode, err := acquisition.ParseMode(opts.Mode)
	if err != nil {
		return plan{}, err
	}

	maxRate := int(acquisition.MaxFrameRate)
	if usesFrameRate(mode) && (opts.Framerate < 1 || opts.Framerate > maxRate) {
		return plan{}, fmt.Errorf("--framerate %d out of range (1-%d)", opts.Framerate, maxRate)
	}
	if mode == acquisition.ModeExposure && opts.Exposure <= 0 {
		return plan{}, fmt.Errorf("--exposure %d must be positive", opts.Exposure)
	}
	if opts.Buffers < 1 {
		return plan{}, fmt.Errorf("--buffers %d must be at least 1", opts.Buffers)
	}
	if opts.Core != acquisition.NoCore {
		if err := affinity.Validate(opts.Core); err != nil {
			return plan{}, fmt.Errorf("--core: %w", err)
		}
	}

	roi, err := acquisition.ParseROI(opts.ROI, acquisition.DefaultSensor)
	if err != nil {
		return plan{}, fmt.Errorf("--roi: %w", err)
	}

	format := persist.FormatRaw
	if opts.Processing {
		format, err = persist.ParseFormat(opts.Format)
		if err != nil {
			return plan{}, fmt.Errorf("--format: %w", err)
		}
		if format == persist.FormatRaw {
			return plan{}, errors.New("--format raw cannot be combined with --processing")
		}
	}

	output := opts.Output
	if output == "" {
		output = filepath.Join("captures", now.Format(outputTimeLayout))
	}

	return plan{mode: mode, roi: roi, format: format, output: output}, nil
}

// optionWarnings lists flags given on the command line that the selected
// mode ignores.
func optionWarnings(opts *Options, mode acquisition.Mode, changed map[string]bool) []string {
	var warnings []string
	if changed["exposure"] && mode != acquisition.ModeExposure {
		warnings = append(warnings, fmt.Sprintf("--exposure is ignored in %s mode", mode))
	}
	if changed["framerate"] && !usesFrameRate(mode) {
		warnings = append(warnings, fmt.Sprintf("--framerate is ignored in %s mode", mode))
	}
	if changed["format"] && !opts.Processing {
		warnings = append(warnings, "--format is ignored without --processing; frames are saved raw")
	}
	return warnings
}
