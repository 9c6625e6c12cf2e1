package aggregator

import (
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/testinfra/run-aggregator/coverage"
	"github.com/testinfra/run-aggregator/flags"
)

// Mode selects whether coverage snapshots are accepted without a session
// identifier.
type Mode string

const (
	// ModeClient is a single-environment run; the empty session id is the
	// valid sentinel and unattributed coverage is accepted.
	ModeClient Mode = "client"
	// ModeRemote is a distributed run with real environment identifiers.
	ModeRemote Mode = "remote"
)

// IsValid reports whether m is a recognized mode.
func (m Mode) IsValid() bool {
	return m == ModeClient || m == ModeRemote
}

// Config holds the application configuration
type Config struct {
	File       string              // Output path for the coverage artifact
	Watermarks coverage.Watermarks // Thresholds forwarded to the coverage report renderer
	Output     io.Writer           // Destination stream for glyph and summary output
	Mode       Mode
	HistoryDB  string // Path to the run-history database, empty disables history
	Log        log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	mode := Mode(ctx.String(flags.Mode.Name))
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid mode: %s. Must be one of: %s, %s", mode, ModeClient, ModeRemote)
	}

	watermarks := coverage.DefaultWatermarks()
	if path := ctx.String(flags.Watermarks.Name); path != "" {
		var err error
		watermarks, err = coverage.LoadWatermarks(path)
		if err != nil {
			return nil, err
		}
	}

	file := ctx.String(flags.CoverageFile.Name)
	if file == "" {
		file = coverage.DefaultArtifactName
	}

	return &Config{
		File:       file,
		Watermarks: watermarks,
		Output:     os.Stdout,
		Mode:       mode,
		HistoryDB:  ctx.String(flags.HistoryDB.Name),
		Log:        logger,
	}, nil
}
