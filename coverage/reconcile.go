package coverage

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ethereum/go-ethereum/log"
)

// Bridge folds a coverage artifact left on disk by a prior invocation into
// the current accumulator before the final write. Two consecutive runs
// pointed at the same artifact therefore accumulate rather than clobber.
type Bridge struct {
	logger log.Logger
	path   string
}

// NewBridge creates a bridge watching the given prior-artifact path. An
// empty path selects DefaultArtifactName.
func NewBridge(logger log.Logger, path string) *Bridge {
	if logger == nil {
		logger = log.New()
	}
	if path == "" {
		path = DefaultArtifactName
	}
	return &Bridge{logger: logger, path: path}
}

// Reconcile merges the prior artifact, if any, into acc. An absent or
// unreadable file is the common case and is a silent no-op. A file that is
// present but malformed propagates as a fatal parse failure; the caller is
// responsible for artifact integrity between runs.
func (b *Bridge) Reconcile(acc *Accumulator) error {
	prior, err := ReadArtifact(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			b.logger.Debug("No prior coverage artifact to reconcile", "path", b.path)
			return nil
		}
		return fmt.Errorf("prior coverage artifact %s is corrupt: %w", b.path, err)
	}

	b.logger.Info("Merging coverage from a prior run", "path", b.path, "files", len(prior))
	acc.Merge(prior)
	return nil
}
