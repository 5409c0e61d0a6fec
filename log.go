package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/regolith-labs/ore-cli-sub000/chainclient"
	"github.com/regolith-labs/ore-cli-sub000/dal"
	"github.com/regolith-labs/ore-cli-sub000/hashengine"
	"github.com/regolith-labs/ore-cli-sub000/poolclient"
	"github.com/regolith-labs/ore-cli-sub000/txmgr"
	"github.com/regolith-labs/ore-cli-sub000/utils"
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	progress.clear()
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

// Loggers per subsystem.  A single backend logger is created and all subsytem
// loggers created from it will write to the backend.  When adding new
// subsystems, add the subsystem logger variable here and to the
// subsystemLoggers map.
//
// Loggers can not be used before the log rotator has been initialized with a
// log file.  This must be performed early during application startup by calling
// initLogRotator.
var (
	// backendLog is the logging backend used to create all subsystem loggers.
	backendLog = btclog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs.  It should be closed on
	// application shutdown.
	logRotator *rotator.Rotator

	minrLog  = backendLog.Logger("MINR")
	hashLog  = backendLog.Logger("HASH")
	chainLog = backendLog.Logger("CHNS")
	txmgrLog = backendLog.Logger("TXMG")
	poolLog  = backendLog.Logger("POOL")
	dalLog   = backendLog.Logger("DAL")
	utilsLog = backendLog.Logger("UTILS")
	confLog  = backendLog.Logger("CONF")
)

// Initialize package-global logger variables.
func init() {
	hashengine.UseLogger(hashLog)
	chainclient.UseLogger(chainLog)
	txmgr.UseLogger(txmgrLog)
	poolclient.UseLogger(poolLog)
	dal.UseLogger(dalLog)
	utils.UseLogger(utilsLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]btclog.Logger{
	"MINR":  minrLog,
	"HASH":  hashLog,
	"CHNS":  chainLog,
	"TXMG":  txmgrLog,
	"POOL":  poolLog,
	"DAL":   dalLog,
	"UTILS": utilsLog,
	"CONF":  confLog,
}

// initLogRotator initializes the logging rotater to write logs to logFile and
// create roll files in the same directory.  It must be called before the
// package-global log rotater variables are used.
func initLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 30)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n", err)
		os.Exit(1)
	}

	logRotator = r
}

// setLogLevel sets the logging level for provided subsystem.  Invalid
// subsystems are ignored.
func setLogLevel(subsystemID string, logLevel string) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}

	// Defaults to info if the log level is invalid.
	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// setLogLevels sets the log level for all subsystem loggers to the passed
// level.
func setLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		setLogLevel(subsystemID, logLevel)
	}
}

// pickNoun returns the singular or plural form of a noun depending
// on the count n.
func pickNoun(n uint64, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
