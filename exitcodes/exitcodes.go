// Package exitcodes defines the standard exit codes used by run-aggregator.
package exitcodes

// Exit code constants used by run-aggregator
// These constants define the exit codes that the application uses to
// indicate various states when it exits:
//
// * Success (0): Used when every session completed without failures
// * TestFailure (1): Used when one or more tests failed or a fatal run error was signaled
// * RuntimeErr (2): Used for runtime errors such as a corrupt coverage artifact
const (
	Success     = 0 // All tests pass
	TestFailure = 1 // Test failures
	RuntimeErr  = 2 // Runtime errors
)
