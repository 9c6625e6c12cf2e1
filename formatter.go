package aggregator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/testinfra/run-aggregator/ledger"
	"github.com/testinfra/run-aggregator/types"
)

// glyph returns the single-character progress marker emitted per test
// outcome. Glyph choice is presentation only.
func glyph(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return text.FgGreen.Sprint(".")
	case types.TestStatusFail:
		return text.FgRed.Sprint("x")
	default:
		return text.FgYellow.Sprint("-")
	}
}

// formatSuiteResult renders one line for a completed root suite, green when
// the suite is clean and red otherwise. A suite-tree terminal error marks
// the line fatal even with zero failed tests.
func formatSuiteResult(suite *types.Suite) string {
	hasError := suite.HasError()

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d/%d tests failed", suite.Name, suite.Failed, suite.Total)
	if suite.Skipped > 0 {
		fmt.Fprintf(&b, " (%d skipped)", suite.Skipped)
	}
	if hasError {
		b.WriteString("; fatal error occurred")
	}

	if suite.Failed > 0 || hasError {
		return text.FgRed.Sprint(b.String())
	}
	return text.FgGreen.Sprint(b.String())
}

func formatFailureHeader() string {
	return text.FgRed.Sprint("FAILED TESTS:")
}

// formatFailure renders one captured failure: the test id with its elapsed
// time in seconds, then the failure message. Seconds keep full
// floating-point precision (milliseconds / 1000, no rounding).
func formatFailure(entry ledger.Entry) string {
	seconds := strconv.FormatFloat(float64(entry.ElapsedMs)/1000, 'f', -1, 64)
	return fmt.Sprintf("%s %s (%ss)\n%s", text.FgRed.Sprint("x"), entry.TestID, seconds, entry.Message)
}

// formatTotals renders the run-end totals line, red when any test failed or
// a fatal run error was signaled.
func formatTotals(platforms, total, failed, skipped int, fatal bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TOTAL: tested %d platforms, %d/%d failed", platforms, failed, total)
	if skipped > 0 {
		fmt.Fprintf(&b, " (%d skipped)", skipped)
	}
	if fatal {
		b.WriteString("; fatal error occurred")
	}

	if failed > 0 || fatal {
		return text.FgRed.Sprint(b.String())
	}
	return text.FgGreen.Sprint(b.String())
}
