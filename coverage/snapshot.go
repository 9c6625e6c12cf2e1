// Package coverage consolidates code-coverage snapshots delivered by test
// sessions into a single mergeable report.
package coverage

import "encoding/json"

// FileCoverage holds the execution counts for one instrumented file.
// The location maps (statementMap, branchMap, fnMap) describe source
// positions; they are identical across snapshots of the same build and are
// carried through a merge untouched from the first snapshot that
// contributed the file.
type FileCoverage struct {
	Path       string             `json:"path"`
	Statements map[string]int64   `json:"s"`
	Branches   map[string][]int64 `json:"b"`
	Functions  map[string]int64   `json:"f"`

	StatementMap json.RawMessage `json:"statementMap,omitempty"`
	BranchMap    json.RawMessage `json:"branchMap,omitempty"`
	FnMap        json.RawMessage `json:"fnMap,omitempty"`
}

// Snapshot is one delivery of coverage data, keyed by instrumented-file
// path. Merging is associative and commutative at the file level: counts
// add, never replace, and merging the same snapshot twice double-counts.
type Snapshot map[string]*FileCoverage

// Clone returns a deep copy of the file's counters.
func (fc *FileCoverage) Clone() *FileCoverage {
	clone := &FileCoverage{
		Path:         fc.Path,
		Statements:   make(map[string]int64, len(fc.Statements)),
		Branches:     make(map[string][]int64, len(fc.Branches)),
		Functions:    make(map[string]int64, len(fc.Functions)),
		StatementMap: fc.StatementMap,
		BranchMap:    fc.BranchMap,
		FnMap:        fc.FnMap,
	}
	for k, v := range fc.Statements {
		clone.Statements[k] = v
	}
	for k, v := range fc.Branches {
		counts := make([]int64, len(v))
		copy(counts, v)
		clone.Branches[k] = counts
	}
	for k, v := range fc.Functions {
		clone.Functions[k] = v
	}
	return clone
}

// add folds another file's counts into fc. Branch count slices of unequal
// length are padded with zeroes on the shorter side.
func (fc *FileCoverage) add(other *FileCoverage) {
	for k, v := range other.Statements {
		fc.Statements[k] += v
	}
	for k, v := range other.Branches {
		existing := fc.Branches[k]
		if len(v) > len(existing) {
			padded := make([]int64, len(v))
			copy(padded, existing)
			existing = padded
		}
		for i, count := range v {
			existing[i] += count
		}
		fc.Branches[k] = existing
	}
	for k, v := range other.Functions {
		fc.Functions[k] += v
	}
	if fc.StatementMap == nil {
		fc.StatementMap = other.StatementMap
	}
	if fc.BranchMap == nil {
		fc.BranchMap = other.BranchMap
	}
	if fc.FnMap == nil {
		fc.FnMap = other.FnMap
	}
}

// Accumulator is the running consolidated coverage state for a run.
type Accumulator struct {
	files Snapshot
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{files: make(Snapshot)}
}

// Merge folds a snapshot into the accumulator. Files not seen before are
// deep-copied so later deliveries from the same session cannot alias the
// accumulated state.
func (a *Accumulator) Merge(snap Snapshot) {
	for path, fc := range snap {
		if fc == nil {
			continue
		}
		existing, exists := a.files[path]
		if !exists {
			a.files[path] = fc.Clone()
			continue
		}
		existing.add(fc)
	}
}

// Files returns the consolidated per-file coverage, keyed by path.
func (a *Accumulator) Files() Snapshot {
	return a.files
}

// Len returns the number of instrumented files accumulated so far.
func (a *Accumulator) Len() int {
	return len(a.files)
}
