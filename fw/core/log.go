package core

import (
	stdlog "github.com/ccnfwd/ccnfwd/std/log"
)

// Log is the forwarder-wide logger every subsystem logs through - one
// shared package-level logger built on std/log.
var Log = stdlog.Log

// ConfigureLog applies a parsed Config's logging section to Log - split
// out from DefaultConfig/ReadYaml so it runs once, after the config file
// is fully loaded and overridden.
func ConfigureLog(cfg *Config) {
	level, err := stdlog.ParseLevel(cfg.Core.LogLevel)
	if err != nil {
		level = stdlog.LevelInfo
	}
	Log.SetLevel(level)
	if cfg.Core.LogJSON {
		Log = stdlog.New(level, true)
	}
}
