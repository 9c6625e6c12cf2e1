package coverage

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// DefaultArtifactName is the well-known filename for the persisted
// coverage artifact. A leftover artifact from a prior run is looked up
// under this name regardless of the configured output path.
const DefaultArtifactName = "coverage.json"

//go:embed artifact.schema.json
var artifactSchemaData []byte

var (
	artifactSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// compileArtifactSchema compiles the embedded artifact schema once.
func compileArtifactSchema() error {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(artifactSchemaData))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal artifact schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("artifact.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add artifact schema resource: %w", err)
			return
		}

		artifactSchema, compileErr = compiler.Compile("artifact.schema.json")
	})
	return compileErr
}

// ValidateArtifact validates raw artifact bytes against the embedded
// schema. A violation is the malformed-artifact case: it propagates and
// aborts finalization rather than being partially recovered.
func ValidateArtifact(data []byte) error {
	if err := compileArtifactSchema(); err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("artifact is not valid JSON: %w", err)
	}
	if err := artifactSchema.Validate(v); err != nil {
		return fmt.Errorf("artifact validation failed: %w", err)
	}
	return nil
}

// ReadArtifact reads and validates a coverage artifact from disk, returning
// it as a snapshot ready to merge.
func ReadArtifact(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateArtifact(data); err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	return snap, nil
}

// WriteArtifact serializes the accumulator to path, creating parent
// directories as needed.
func WriteArtifact(path string, acc *Accumulator) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(acc.Files(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode coverage artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write coverage artifact %s: %w", path, err)
	}
	return nil
}
