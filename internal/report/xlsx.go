package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nilvalls/TTHTauTau-Roast/internal/process"
)

// SummarySheet is the first sheet of an exported workbook.
const SummarySheet = "Summary"

var summaryHeader = []any{
	"Process", "Type", "Cross section [pb]", "Branching ratio", "Other SF",
	"N_DS", "N_ntuple", "N_analyzed", "Expected events", "Normalized",
}

var cutFlowHeader = []any{"Cut", "Events", "Rel. eff.", "Cum. eff.", "Normalized events"}

// ExportXLSX writes a workbook with a summary sheet followed by one
// cut-flow sheet per record.
func ExportXLSX(path string, recs []*process.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}
	if err := writeSummary(f, recs); err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}

	used := map[string]bool{strings.ToLower(SummarySheet): true}
	for _, r := range recs {
		name := uniqueSheetName(r.ShortName, used)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("export xlsx: sheet %q: %w", name, err)
		}
		if err := writeCutFlowSheet(f, name, r); err != nil {
			return fmt.Errorf("export xlsx: sheet %q: %w", name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, recs []*process.Record) error {
	if err := setRow(f, SummarySheet, 1, summaryHeader); err != nil {
		return err
	}
	for i, r := range recs {
		row := []any{
			r.ShortName, r.Type, cell(r.CrossSection), cell(r.BranchingRatio), cell(r.OtherScaleFactor),
			r.InDataset, r.InNtuple, r.AnalyzedEvents, cell(r.ExpectedEvents), r.NormalizedHistos(),
		}
		if err := setRow(f, SummarySheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeCutFlowSheet(f *excelize.File, sheet string, r *process.Record) error {
	if err := setRow(f, sheet, 1, cutFlowHeader); err != nil {
		return err
	}
	raw := r.CutFlow()
	norm := r.NormalizedCutFlow()
	for i, row := range raw.Rows() {
		var normalized any = ""
		if n, ok := norm.Count(row.Name); ok {
			normalized = cell(n)
		}
		line := []any{
			row.Name,
			cell(row.Count),
			cell(raw.RelativeEfficiency(i)),
			cell(raw.CumulativeEfficiency(i)),
			normalized,
		}
		if err := setRow(f, sheet, i+2, line); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	addr, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, addr, &values)
}

// cell keeps non-finite values out of numeric cells, which the format
// cannot represent.
func cell(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return FormatCount(f, false)
	}
	return f
}

// uniqueSheetName maps a process name to a legal, unused sheet name.
func uniqueSheetName(name string, used map[string]bool) string {
	const maxLen = 31
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, name)
	clean = strings.Trim(clean, "'")
	if clean == "" {
		clean = "process"
	}
	if len([]rune(clean)) > maxLen {
		clean = string([]rune(clean)[:maxLen])
	}

	candidate := clean
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf("~%d", i)
		base := []rune(clean)
		if len(base)+len(suffix) > maxLen {
			base = base[:maxLen-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
