// Package cutflow implements the ordered cut-flow table kept by every
// process record.
//
// A table is a sequence of named rows, each holding the (weighted) number of
// events surviving that step. Rows are addressed by name; appending a name
// that already exists overwrites its count in place so the row order of the
// first registration is kept.
package cutflow

import (
	"fmt"
	"slices"
)

// LumiNormCut is the row appended by luminosity normalization.
const LumiNormCut = "Lumi norm"

// Row is one step of a cut-flow.
type Row struct {
	Name  string  `json:"name" yaml:"name"`
	Count float64 `json:"count" yaml:"count"`

	// Derived rows were produced by RegisterCutFromLast; Multiplier is the
	// factor applied to the reference row.
	Derived    bool    `json:"derived,omitempty" yaml:"derived,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// Table is an ordered cut-flow. The zero value is an empty table ready to use.
type Table struct {
	rows []Row
}

// New returns a table holding a copy of rows.
func New(rows ...Row) Table {
	return Table{rows: slices.Clone(rows)}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns a copy of the rows in order.
func (t *Table) Rows() []Row { return slices.Clone(t.rows) }

// Row returns row i.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Names returns the row names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.rows))
	for i, r := range t.rows {
		names[i] = r.Name
	}
	return names
}

// Count returns the count registered for name.
func (t *Table) Count(name string) (float64, bool) {
	if i := t.index(name); i >= 0 {
		return t.rows[i].Count, true
	}
	return 0, false
}

// Last returns the most recent row.
func (t *Table) Last() (Row, bool) {
	if len(t.rows) == 0 {
		return Row{}, false
	}
	return t.rows[len(t.rows)-1], true
}

// SetCutCounts sets the count of the named row, appending it if absent.
func (t *Table) SetCutCounts(name string, count float64) {
	t.put(Row{Name: name, Count: count})
}

// RegisterCut records a cut with its surviving count. Same as SetCutCounts;
// kept as the name used by selection code.
func (t *Table) RegisterCut(name string, count float64) {
	t.put(Row{Name: name, Count: count})
}

// RegisterCutFromLast registers name with a count derived from an earlier
// row: the reference row sits offset positions before the new row (offset 1
// is the current last row) and its count is multiplied by multiplier.
func (t *Table) RegisterCutFromLast(name string, offset int, multiplier float64) error {
	if offset < 1 || offset > len(t.rows) {
		return &OffsetError{Cut: name, Offset: offset, Len: len(t.rows)}
	}
	ref := t.rows[len(t.rows)-offset]
	t.put(Row{
		Name:       name,
		Count:      ref.Count * multiplier,
		Derived:    true,
		Multiplier: multiplier,
	})
	return nil
}

// Add sums other into t row by row. Rows present only in other are appended
// in other's order.
func (t *Table) Add(other Table) {
	for _, r := range other.rows {
		i := t.index(r.Name)
		if i < 0 {
			t.rows = append(t.rows, r)
			continue
		}
		t.rows[i].Count += r.Count
		if !t.rows[i].Derived && r.Derived {
			t.rows[i].Derived, t.rows[i].Multiplier = true, r.Multiplier
		}
	}
}

// Clone returns an independent copy of t.
func (t *Table) Clone() Table {
	return Table{rows: slices.Clone(t.rows)}
}

// RelativeEfficiency returns row i's count over row i-1's. Row 0 is 1.
func (t *Table) RelativeEfficiency(i int) float64 {
	if i == 0 {
		return 1
	}
	return t.rows[i].Count / t.rows[i-1].Count
}

// CumulativeEfficiency returns row i's count over the first row's.
func (t *Table) CumulativeEfficiency(i int) float64 {
	return t.rows[i].Count / t.rows[0].Count
}

// BuildNormalized derives a luminosity-normalized view of raw. When raw
// holds a LumiNormCut row, every row before it is multiplied by that row's
// multiplier; the lumi-norm row and anything after it are copied as is.
// Without a lumi-norm row the result is a plain copy.
func BuildNormalized(raw Table) Table {
	out := raw.Clone()
	i := out.index(LumiNormCut)
	if i < 0 || !out.rows[i].Derived {
		return out
	}
	f := out.rows[i].Multiplier
	for j := 0; j < i; j++ {
		out.rows[j].Count *= f
	}
	return out
}

// BuildNormalizedCutFlow replaces t with the normalized view of raw.
func (t *Table) BuildNormalizedCutFlow(raw Table) {
	*t = BuildNormalized(raw)
}

func (t *Table) put(r Row) {
	if i := t.index(r.Name); i >= 0 {
		t.rows[i] = r
		return
	}
	t.rows = append(t.rows, r)
}

func (t *Table) index(name string) int {
	return slices.IndexFunc(t.rows, func(r Row) bool { return r.Name == name })
}

// OffsetError is returned when RegisterCutFromLast points outside the table.
type OffsetError struct {
	Cut    string
	Offset int
	Len    int
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("cutflow: cannot register %q from offset %d in a table of %d rows", e.Cut, e.Offset, e.Len)
}
