// Package logging provides module-scoped slog loggers for camnode.
//
// Every logger carries a "module" attribute and has its own level, derived
// from Config.Level and the per-module overrides in Config.Modules:
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Modules: map[string]string{"acquisition": "debug"},
//		File:    "captures/2025-09-26_125218/camnode_log.txt",
//	})
//	logger := logging.GetLogger("acquisition")
//	logger.Info("Started image acquisition", "buffers", 5)
//
// Loggers obtained before Initialize are updated in place, so packages may
// keep a logger in a package variable.
//
// # Outputs
//
// Each record goes to stdout (text or JSON) unless stdout is a device such
// as /dev/null, to the systemd journal when its socket exists, to the
// session file when Config.File is set, and to an in-memory ring buffer of
// the last 1000 entries. Buffered entries carry an increasing Seq, which lets
// the log stream tell replayed entries from live ones.
//
// Session file lines drop the module attribute:
//
//	[2025-09-26 12:52:18.042 - INFO] Frame captured seq=17 frame_id=17
//
// The file is rotated by lumberjack at 100 MB.
//
// # Timing Mode
//
// Config.Timing raises every module except FramesModule to warn, reducing
// the output to one "Frame captured" line per frame for the timing command.
//
// # Journal
//
// Attributes become upper-case journal fields:
//
//	journalctl -t camnode MODULE=persist -p warning
//
// # Configuration
//
// In camnode.toml, string keys of [logging] other than level and format are
// module levels:
//
//	[logging]
//	level = "info"
//	format = "text"
//	acquisition = "debug"
//	persist = "warn"
package logging
