package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	aggregator "github.com/testinfra/run-aggregator"
	"github.com/testinfra/run-aggregator/exitcodes"
	"github.com/testinfra/run-aggregator/flags"
	"github.com/testinfra/run-aggregator/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "run-aggregator"
	app.Usage = "Distributed Test Run Aggregation Service"
	app.Description = "run-aggregator consolidates results and coverage from multi-environment test runs"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if aggregator.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if aggregator.IsTestFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			}
		}
	}

	// Start telemetry
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer otelShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server
	svc := service.New(service.Config{Log: log.Root()})
	svc.Start(ctx)
	defer svc.Shutdown()

	// Start CLI
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context) error {
	logger, err := setupLogger(ctx)
	if err != nil {
		return aggregator.NewRuntimeError(fmt.Errorf("failed to set up logging: %w", err))
	}

	cfg, err := aggregator.NewConfig(ctx, logger)
	if err != nil {
		return aggregator.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	agg, err := aggregator.New(ctx.Context, cfg)
	if err != nil {
		return aggregator.NewRuntimeError(fmt.Errorf("failed to create aggregator: %w", err))
	}
	defer agg.Close()

	in, closeIn, err := openEvents(ctx.String(flags.EventsFile.Name))
	if err != nil {
		return aggregator.NewRuntimeError(err)
	}
	defer closeIn()

	logger.Info("Aggregating test run", "run_id", agg.RunID(), "mode", cfg.Mode)
	return aggregator.NewStreamReader(agg).Read(in)
}

func setupLogger(ctx *cli.Context) (log.Logger, error) {
	lvl, err := levelFromString(ctx.String(flags.LogLevel.Name))
	if err != nil {
		return nil, err
	}
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true))
	log.SetDefault(logger)
	return logger, nil
}

func levelFromString(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return log.LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

func openEvents(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open event stream %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}
