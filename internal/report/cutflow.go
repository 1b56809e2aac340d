// Package report renders cut-flows and record summaries for people and
// spreadsheets.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/nilvalls/TTHTauTau-Roast/internal/cutflow"
	"github.com/nilvalls/TTHTauTau-Roast/internal/process"
)

// CutFlowView lines up the cut-flows of several records by cut name.
type CutFlowView struct {
	Normalized bool     `json:"normalized"`
	Processes  []string `json:"processes"`
	Cuts       []CutRow `json:"cuts"`
}

// CutRow is one cut across all processes. Counts[i] belongs to
// Processes[i] and is nil when that process never registered the cut.
type CutRow struct {
	Name   string            `json:"name"`
	Counts []*cutflow.Number `json:"counts"`
}

// BuildCutFlowView collects the raw or normalized cut-flows of recs. Cuts
// appear in first-seen order walking the records left to right.
func BuildCutFlowView(recs []*process.Record, normalized bool) CutFlowView {
	v := CutFlowView{Normalized: normalized, Processes: make([]string, len(recs)), Cuts: []CutRow{}}
	index := make(map[string]int)

	for i, r := range recs {
		v.Processes[i] = r.ShortName
		t := r.CutFlow()
		if normalized {
			t = r.NormalizedCutFlow()
		}
		for _, row := range t.Rows() {
			j, ok := index[row.Name]
			if !ok {
				j = len(v.Cuts)
				index[row.Name] = j
				v.Cuts = append(v.Cuts, CutRow{Name: row.Name, Counts: make([]*cutflow.Number, len(recs))})
			}
			n := cutflow.Number(row.Count)
			v.Cuts[j].Counts[i] = &n
		}
	}
	return v
}

// CutFlowJSON renders the view as indented JSON. Non-finite counts are
// encoded as strings.
func CutFlowJSON(recs []*process.Record, normalized bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(BuildCutFlowView(recs, normalized)); err != nil {
		return nil, fmt.Errorf("cut-flow json: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteCutFlowText writes an aligned plain-text table: one row per cut, one
// column per record. Raw integral counts print without decimals,
// normalized counts with two.
func WriteCutFlowText(w io.Writer, recs []*process.Record, normalized bool) error {
	v := BuildCutFlowView(recs, normalized)

	header := append([]string{"Cut"}, v.Processes...)
	table := [][]string{header}
	for _, c := range v.Cuts {
		line := []string{c.Name}
		for _, n := range c.Counts {
			line = append(line, formatCount(n, normalized))
		}
		table = append(table, line)
	}

	widths := make([]int, len(header))
	for _, line := range table {
		for i, cell := range line {
			widths[i] = max(widths[i], len(cell))
		}
	}

	title := "Cut flow (raw)"
	if normalized {
		title = "Cut flow (normalized)"
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for _, line := range table {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%-*s", widths[0], line[0])
		for i := 1; i < len(line); i++ {
			fmt.Fprintf(&sb, "  %*s", widths[i], line[i])
		}
		if _, err := fmt.Fprintln(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func formatCount(n *cutflow.Number, normalized bool) string {
	if n == nil {
		return "-"
	}
	return FormatCount(float64(*n), normalized)
}

// FormatCount renders a count the way the text table does.
func FormatCount(f float64, normalized bool) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case !normalized && f == math.Trunc(f):
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%.2f", f)
}
