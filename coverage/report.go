package coverage

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Metrics are the per-file percentages derived from the raw counters.
type Metrics struct {
	Statements float64
	Branches   float64
	Functions  float64
}

// FileMetrics computes coverage percentages for one file. A metric with no
// instrumented entries reports 100%.
func FileMetrics(fc *FileCoverage) Metrics {
	return Metrics{
		Statements: percent(coveredCounts(fc.Statements)),
		Branches:   percent(coveredBranches(fc.Branches)),
		Functions:  percent(coveredCounts(fc.Functions)),
	}
}

// RenderSummary writes a per-file and total coverage table to w, colored
// by the watermark bands. Thresholds affect rendering only.
func RenderSummary(w io.Writer, acc *Accumulator, marks Watermarks) {
	if acc.Len() == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Coverage Summary")
	t.AppendHeader(table.Row{"File", "Statements", "Branches", "Functions"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "File", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Statements", Align: text.AlignRight},
		{Name: "Branches", Align: text.AlignRight},
		{Name: "Functions", Align: text.AlignRight},
	})

	paths := make([]string, 0, acc.Len())
	for path := range acc.Files() {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var stmtCovered, stmtTotal, branchCovered, branchTotal, fnCovered, fnTotal int
	for _, path := range paths {
		fc := acc.Files()[path]
		sc, st := coveredCounts(fc.Statements)
		bc, bt := coveredBranches(fc.Branches)
		fnc, fnt := coveredCounts(fc.Functions)
		stmtCovered += sc
		stmtTotal += st
		branchCovered += bc
		branchTotal += bt
		fnCovered += fnc
		fnTotal += fnt

		t.AppendRow(table.Row{
			path,
			colorPct(percent(sc, st), marks.Statements),
			colorPct(percent(bc, bt), marks.Branches),
			colorPct(percent(fnc, fnt), marks.Functions),
		})
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		colorPct(percent(stmtCovered, stmtTotal), marks.Statements),
		colorPct(percent(branchCovered, branchTotal), marks.Branches),
		colorPct(percent(fnCovered, fnTotal), marks.Functions),
	})
	t.Render()
}

func coveredCounts(counts map[string]int64) (covered, total int) {
	for _, count := range counts {
		total++
		if count > 0 {
			covered++
		}
	}
	return covered, total
}

func coveredBranches(branches map[string][]int64) (covered, total int) {
	for _, arms := range branches {
		for _, count := range arms {
			total++
			if count > 0 {
				covered++
			}
		}
	}
	return covered, total
}

func percent(covered, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(covered) / float64(total) * 100
}

func colorPct(pct float64, marks [2]float64) string {
	formatted := fmt.Sprintf("%.2f%%", pct)
	switch classify(pct, marks) {
	case BandHigh:
		return text.FgGreen.Sprint(formatted)
	case BandMedium:
		return text.FgYellow.Sprint(formatted)
	default:
		return text.FgRed.Sprint(formatted)
	}
}
