package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/smazurov/camnode/internal/acquisition"
	"github.com/smazurov/camnode/internal/api"
	"github.com/smazurov/camnode/internal/camera"
	"github.com/smazurov/camnode/internal/config"
	"github.com/smazurov/camnode/internal/console"
	"github.com/smazurov/camnode/internal/events"
	"github.com/smazurov/camnode/internal/logging"
	"github.com/smazurov/camnode/internal/metrics/exporters"
	"github.com/smazurov/camnode/internal/persist"
	"github.com/smazurov/camnode/internal/session"
	"github.com/smazurov/camnode/internal/systemd"
	"github.com/smazurov/camnode/internal/version"
)

// loggingConfig merges the logging flags with per-module levels from the config file.
func loggingConfig(opts *Options, output string) logging.Config {
	cfg := config.LoadLoggingConfig(opts.Config)
	cfg.Level = opts.LoggingLevel
	if opts.Debug {
		cfg.Level = "debug"
	}
	cfg.Format = opts.LoggingFormat
	cfg.Timing = opts.Timing
	cfg.File = filepath.Join(output, logFileName)
	return cfg
}

// app runs one acquisition session.
type app struct {
	opts     *Options
	plan     plan
	prompter *console.Prompter
}

func (a *app) settings() acquisition.Settings {
	return acquisition.Settings{
		Mode:       a.plan.mode,
		FrameRate:  float64(a.opts.Framerate),
		ExposureUS: float64(a.opts.Exposure),
		Sensor:     acquisition.DefaultSensor,
		Buffers:    a.opts.Buffers,
		ROI:        a.plan.roi,
		Core:       a.opts.Core,
	}
}

func (a *app) printSummary(link camera.Link) {
	a.prompter.Banner(version.Get().Version)
	a.prompter.Setting("Camera", fmt.Sprintf("%s (%s)", link.ID(), link.Model()))
	a.prompter.Setting("Mode", a.plan.mode)
	switch {
	case usesFrameRate(a.plan.mode):
		a.prompter.Setting("Frame rate", fmt.Sprintf("%d fps", a.opts.Framerate))
	case a.plan.mode == acquisition.ModeExposure:
		a.prompter.Setting("Exposure", fmt.Sprintf("%d us", a.opts.Exposure))
	}
	a.prompter.Setting("ROI", a.plan.roi)
	a.prompter.Setting("Format", a.plan.format)
	a.prompter.Setting("Output", a.plan.output)
	if a.opts.Core != acquisition.NoCore {
		a.prompter.Setting("Core", a.opts.Core)
	}
	if a.opts.HTTP != "" {
		a.prompter.Setting("API", a.opts.HTTP)
	}
}

// run executes the session until Enter, Ctrl+C or ctx cancellation and
// returns the first fatal error.
func (a *app) run(ctx context.Context) error {
	if err := os.MkdirAll(a.plan.output, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	logging.Initialize(loggingConfig(a.opts, a.plan.output))
	defer func() { _ = logging.Close() }()
	logger := logging.GetLogger("main")

	bus := events.New()
	logging.SetLogCallback(func(entry logging.LogEntry) {
		bus.Publish(api.NewLogEvent(entry))
	})
	defer logging.SetLogCallback(nil)

	link := camera.NewSimulated(camera.SimConfig{
		ID:     a.opts.CameraID,
		Logger: logging.GetLogger("camera"),
	})

	store, err := persist.NewStore(a.plan.output, a.plan.format)
	if err != nil {
		_ = link.Close()
		return err
	}

	ctrl, err := acquisition.New(acquisition.Options{
		Link:        link,
		Saver:       store,
		Settings:    a.settings(),
		Bus:         bus,
		Logger:      logging.GetLogger("acquisition"),
		FrameLogger: logging.GetLogger(logging.FramesModule),
	})
	if err != nil {
		_ = link.Close()
		return err
	}
	defer func() {
		if closeErr := ctrl.Close(); closeErr != nil {
			logger.Error("Failed to close camera", "error", closeErr)
		}
	}()

	notifier := systemd.NewNotifier(logging.GetLogger("systemd"))
	unsubscribe := bus.Subscribe(func(e events.SessionStateChangedEvent) {
		notifier.Status(fmt.Sprintf("%s: %s", e.CameraID, e.To))
	})
	defer unsubscribe()

	exporter := exporters.NewSSEExporter(bus)
	exporter.Start(ctx)
	defer exporter.Stop()

	a.printSummary(link)

	if err := ctrl.Configure(); err != nil {
		return err
	}
	if err := ctrl.Start(); err != nil {
		return err
	}

	st := ctrl.Settings()
	manifest := session.New(version.Get().Version,
		session.Camera{ID: link.ID(), Model: link.Model()},
		session.Settings{
			Mode:       st.Mode.String(),
			FrameRate:  st.FrameRate,
			ExposureUS: st.ExposureUS,
			Format:     string(store.Format()),
			Buffers:    st.Buffers,
			Core:       st.Core,
			ROI:        st.ROI,
		}, time.Now())
	if err := manifest.Write(a.plan.output); err != nil {
		logger.Warn("Failed to write session manifest", "error", err)
	}

	if a.opts.HTTP != "" {
		server := api.NewServer(&api.Options{
			AuthUsername:      a.opts.AuthUsername,
			AuthPassword:      a.opts.AuthPassword,
			CORSOrigins:       strings.Split(a.opts.CORSOrigins, ","),
			Session:           ctrl,
			EventBus:          bus,
			PrometheusHandler: exporters.HTTPHandler(),
		})
		go func() {
			if startErr := server.Start(a.opts.HTTP); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
			}
		}()
		defer func() {
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
		}()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var keys <-chan byte
	if kb, kbErr := console.OpenKeyboard(os.Stdin, cancel); kbErr != nil {
		logger.Warn("Keyboard input unavailable", "error", kbErr)
	} else {
		defer func() { _ = kb.Close() }()
		keys = kb.Keys()
	}

	a.prompter.Instructions(a.plan.mode == acquisition.ModeSoftwareTriggerKeyboard)
	notifier.Ready(fmt.Sprintf("%s: acquiring in %s mode", link.ID(), a.plan.mode))
	go notifier.RunWatchdog(runCtx)

	reason, err := ctrl.Run(runCtx, keys)
	if err != nil {
		return err
	}

	a.prompter.ShuttingDown(string(reason))
	notifier.Stopping()
	stopErr := ctrl.Stop()

	manifest.Finish(ctrl.Stats(), string(reason), time.Now())
	if err := manifest.Write(a.plan.output); err != nil {
		logger.Warn("Failed to write session manifest", "error", err)
	}
	logSummary(logger, ctrl.Stats())

	return stopErr
}

func logSummary(logger *slog.Logger, st acquisition.Stats) {
	logger.Info("Session finished",
		"delivered", st.Source.Delivered,
		"saved", st.Worker.Saved,
		"rejected", st.Source.Rejected,
		"write_failures", st.Worker.Failed,
		"dropped_after_stop", st.Source.Dropped,
		"queue_high_water", st.QueueHighWater)
}
