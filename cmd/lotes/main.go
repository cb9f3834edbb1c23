// Command lotes migrates the tour's krpano documents into the parcel store, verifies
// what was stored and serves the parcel catalog API.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lanube360/mirador-lotes/internal/config"
	"github.com/lanube360/mirador-lotes/internal/logging"
	"github.com/rs/zerolog"
)

// AppName names log files and the GELF facility. Version can be set at build time via ldflags.
var (
	AppName = "mirador_lotes"
	Version = "0.0.1"
)

func main() {
	a := newApp()
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		os.Exit(1)
	}
}

// app carries the process-wide services every command shares.
type app struct {
	configPath string
	logLevel   string

	start   time.Time
	slogMgr *logging.SlogManager
	logger  *slog.Logger
	zlog    zerolog.Logger
	run     *logging.RunContext
	closers []io.Closer
}

func newApp() *app {
	return &app{
		start:   time.Now(),
		slogMgr: logging.NewSlogManager(),
		run:     &logging.RunContext{},
	}
}

// setup loads configuration and wires the log outputs.
func (a *app) setup() error {
	var cfgErr error
	if a.configPath != "" {
		cfgErr = config.LoadFile(a.configPath)
		if cfgErr != nil {
			return cfgErr
		}
	} else {
		cfgErr = config.Load(".")
	}

	level := a.logLevel
	if level == "" {
		level = config.GetString("logLevel")
	}

	var out logging.Outputs
	logFile, err := logging.OpenLogFile(config.GetString("logsDir"), AppName, a.start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		out.File = os.Stderr
	} else {
		a.closers = append(a.closers, logFile)
		out.File = io.MultiWriter(os.Stderr, logFile)
	}

	gl := config.GetGraylogConfig()
	var glErr error
	if gl.Enabled {
		w, err := logging.NewGraylogWriter(gl.Address, AppName)
		if err != nil {
			glErr = err
		} else {
			a.closers = append(a.closers, w)
			out.Graylog = w
		}
	}

	a.slogMgr.SetContextProvider(a.run.Attrs)
	a.slogMgr.Setup(out, level)
	a.logger = a.slogMgr.Logger()
	a.zlog = logging.NewZerolog(out.File, level).With().Str("app", AppName).Logger()

	if cfgErr != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	}
	if glErr != nil {
		a.logger.Warn("Failed to connect to Graylog", "address", gl.Address, "error", glErr)
	}
	a.logger.Info("Starting up", "app", AppName, "version", Version)
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}
