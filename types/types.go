// Package types defines the data contracts exchanged with the host test
// engine. The engine owns the suite/test tree and all counters; this module
// only reads them.
package types

// TestStatus represents the possible outcomes of a test execution
type TestStatus string

const (
	TestStatusPass TestStatus = "pass"
	TestStatusFail TestStatus = "fail"
	TestStatusSkip TestStatus = "skip"
)

// Suite is a node in the host engine's suite tree. Root suites have no
// parent and belong to exactly one execution session. The aggregate
// counters are computed upstream and must not be written here.
type Suite struct {
	ID        string
	Name      string
	SessionID string
	Parent    *Suite
	Children  []*Suite

	// Aggregate counters, host-computed.
	Total   int
	Failed  int
	Skipped int

	// Err is a suite-level terminal error, distinct from any individual
	// test failure inside the suite.
	Err error

	// TestErrs holds terminal errors carried by leaf tests of this suite.
	// The tests themselves are transient; the engine records only the
	// error values on the owning node.
	TestErrs []error
}

// Root reports whether s is a top-level suite.
func (s *Suite) Root() bool {
	return s.Parent == nil
}

// HasError reports whether the suite or any descendant carries a terminal
// error. A suite with zero failed tests can still have an error, e.g. when
// a beforeEach hook blew up after the counters were computed.
func (s *Suite) HasError() bool {
	if s == nil {
		return false
	}
	if s.Err != nil {
		return true
	}
	for _, err := range s.TestErrs {
		if err != nil {
			return true
		}
	}
	for _, child := range s.Children {
		if child.HasError() {
			return true
		}
	}
	return false
}

// Test is a leaf outcome delivered by the host engine. Only failed tests
// outlive the event that delivered them; pass/skip outcomes update counters
// inline and are dropped.
type Test struct {
	ID        string
	SessionID string
	Elapsed   int64 // milliseconds
	Err       error
}

// ElapsedSeconds converts the reported elapsed time to seconds with full
// floating-point precision (milliseconds / 1000, no rounding).
func (t *Test) ElapsedSeconds() float64 {
	return float64(t.Elapsed) / 1000
}
