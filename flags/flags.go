package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "RUN_AGGREGATOR"

// prefixEnvVars returns the prefixed environment variable names for a flag.
func prefixEnvVars(name string) []string {
	return []string{fmt.Sprintf("%s_%s", EnvVarPrefix, name)}
}

var (
	CoverageFile = &cli.StringFlag{
		Name:    "coverage-file",
		Value:   "coverage.json",
		EnvVars: prefixEnvVars("COVERAGE_FILE"),
		Usage:   "Output path for the consolidated coverage artifact",
	}
	Watermarks = &cli.StringFlag{
		Name:    "watermarks",
		Value:   "",
		EnvVars: prefixEnvVars("WATERMARKS"),
		Usage:   "Path to watermark config file (eg. 'watermarks.yaml'); thresholds affect report coloring only",
	}
	Mode = &cli.StringFlag{
		Name:    "mode",
		Value:   "remote",
		EnvVars: prefixEnvVars("MODE"),
		Usage:   "Execution mode: 'client' (single environment, coverage accepted without a session id) or 'remote'",
	}
	EventsFile = &cli.StringFlag{
		Name:    "events",
		Value:   "-",
		EnvVars: prefixEnvVars("EVENTS"),
		Usage:   "Path to the host engine's event stream, '-' for stdin",
	}
	HistoryDB = &cli.StringFlag{
		Name:    "history-db",
		Value:   "",
		EnvVars: prefixEnvVars("HISTORY_DB"),
		Usage:   "Path to a SQLite run-history database. Empty disables history.",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "Log level: trace, debug, info, warn, error, crit",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	CoverageFile,
	Watermarks,
	Mode,
	EventsFile,
	HistoryDB,
	LogLevel,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

// CheckRequired verifies that all required flags are set.
func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
