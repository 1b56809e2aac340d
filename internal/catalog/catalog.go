// Package catalog loads process definitions from YAML or CUE files.
//
// A catalog lists every process an analysis knows about together with its
// physics constants and upstream event counts:
//
//	processes:
//	  - name: ttbar
//	    alias: ttbar
//	    title: "t#bar{t}"
//	    type: mcBackground
//	    tree: TTbarTree
//	    paths: ["/store/ttbar/*.root"]
//	    color: 632
//	    ds_count: 1000000
//	    nut_count: 950000
//	    ntuple_count: 950000
//	    analyzed_count: 950000
//	    xsec: 245.8
//	    branch: 1
//	combine:
//	  - name: ewk
//	    members: [zjets, wjets]
//
// Combinations are not built at import time. Their definitions are stored
// and the combined records are rebuilt from normalized members.
//
// The same structure is accepted as CUE, which lets catalogs share
// constants and constraints across processes.
package catalog

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/text/unicode/norm"

	"github.com/nilvalls/TTHTauTau-Roast/internal/process"
)

// Entry is one process definition.
type Entry struct {
	Name     string   `yaml:"name" json:"name"`
	Alias    string   `yaml:"alias" json:"alias,omitempty"`
	Title    string   `yaml:"title" json:"title,omitempty"`
	Type     string   `yaml:"type" json:"type"`
	Tree     string   `yaml:"tree" json:"tree,omitempty"`
	Paths    []string `yaml:"paths" json:"paths,omitempty"`
	Color    int      `yaml:"color" json:"color,omitempty"`
	DSCount  int64    `yaml:"ds_count" json:"ds_count,omitempty"`
	NutCount int64    `yaml:"nut_count" json:"nut_count,omitempty"`
	// NtupleCount and AnalyzedCount are N_ntuple and N_analyzed.
	NtupleCount   int64   `yaml:"ntuple_count" json:"ntuple_count,omitempty"`
	AnalyzedCount int64   `yaml:"analyzed_count" json:"analyzed_count,omitempty"`
	XSec          float64 `yaml:"xsec" json:"xsec,omitempty"`
	Branch        float64 `yaml:"branch" json:"branch,omitempty"`
	GenMatch      bool    `yaml:"genmatch" json:"genmatch,omitempty"`
	OtherSF       float64 `yaml:"other_sf" json:"other_sf,omitempty"`
	RelSys        float64 `yaml:"rel_sys" json:"rel_sys,omitempty"`
	Plot          bool    `yaml:"plot" json:"plot,omitempty"`
}

// Combination merges several processes into one.
type Combination struct {
	Name    string   `yaml:"name" json:"name"`
	Members []string `yaml:"members" json:"members"`
}

// Catalog is a parsed catalog file.
type Catalog struct {
	Processes []Entry       `yaml:"processes" json:"processes"`
	Combine   []Combination `yaml:"combine" json:"combine,omitempty"`
}

// Record builds a fresh record for e, seeding the first two cut-flow rows
// from the upstream counts.
func (e Entry) Record() *process.Record {
	r := process.NewRecord(process.Metadata{
		ShortName:         e.Name,
		NiceName:          e.Alias,
		LabelForLegend:    e.Title,
		Type:              e.Type,
		TreeName:          e.Tree,
		NtuplePaths:       e.Paths,
		Color:             e.Color,
		CheckReality:      e.GenMatch,
		Plot:              e.Plot,
		CrossSection:      e.XSec,
		BranchingRatio:    e.Branch,
		OtherScaleFactor:  e.OtherSF,
		RelSysUncertainty: e.RelSys,
	}, process.Counters{
		InDataset:           e.DSCount,
		ReadByPreprocessing: e.NutCount,
		InNtuple:            e.NtupleCount,
		AnalyzedEvents:      e.AnalyzedCount,
	})
	r.CutFlow().SetCutCounts(process.CutReadFromDS, float64(e.DSCount))
	r.CutFlow().SetCutCounts(process.CutSkimming, float64(e.NutCount))
	return r
}

// Find returns the entry named name.
func (c *Catalog) Find(name string) (Entry, bool) {
	for _, e := range c.Processes {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Apply brings set in line with the catalog: known records are updated in
// place, unknown ones are created. Counts the catalog gives (non-zero)
// replace the record's counters; counts it omits are kept. Combinations
// are left to the caller.
func (c *Catalog) Apply(set *process.Set) {
	for _, e := range c.Processes {
		fresh := e.Record()
		existing, ok := set.Get(e.Name)
		if !ok {
			set.Put(fresh)
			continue
		}
		existing.Update(fresh)
		setCount(&existing.InDataset, e.DSCount)
		setCount(&existing.ReadByPreprocessing, e.NutCount)
		setCount(&existing.InNtuple, e.NtupleCount)
		setCount(&existing.AnalyzedEvents, e.AnalyzedCount)
	}
}

func setCount(dst *int64, v int64) {
	if v != 0 {
		*dst = v
	}
}

// IsCombination reports whether name is a combination of the catalog.
func (c *Catalog) IsCombination(name string) bool {
	for _, comb := range c.Combine {
		if comb.Name == name {
			return true
		}
	}
	return false
}

// normalize canonicalizes names and checks the catalog for consistency.
func (c *Catalog) normalize(file string) error {
	var result *multierror.Error
	seen := make(map[string]bool)

	for i := range c.Processes {
		e := &c.Processes[i]
		e.Name = norm.NFC.String(e.Name)
		if e.Name == "" {
			result = multierror.Append(result, &LoadError{File: file, Code: ErrCodeMissingName,
				Message: fmt.Sprintf("processes[%d]: name is required", i)})
			continue
		}
		if seen[e.Name] {
			result = multierror.Append(result, &LoadError{File: file, Code: ErrCodeDuplicate,
				Message: fmt.Sprintf("process %q defined more than once", e.Name)})
		}
		seen[e.Name] = true
	}
	memberOf := make(map[string]string)
	for i := range c.Combine {
		comb := &c.Combine[i]
		comb.Name = norm.NFC.String(comb.Name)
		if seen[comb.Name] {
			result = multierror.Append(result, &LoadError{File: file, Code: ErrCodeDuplicate,
				Message: fmt.Sprintf("combine %q: name already used", comb.Name)})
		}
		seen[comb.Name] = true
		for j, m := range comb.Members {
			m = norm.NFC.String(m)
			comb.Members[j] = m
			if other, ok := memberOf[m]; ok {
				result = multierror.Append(result, &LoadError{File: file, Code: ErrCodeSharedMember,
					Message: fmt.Sprintf("combine %q: member %q already in %q", comb.Name, m, other)})
				continue
			}
			memberOf[m] = comb.Name
			if !seen[m] || c.IsCombination(m) {
				result = multierror.Append(result, &LoadError{File: file, Code: ErrCodeUnknownMember,
					Message: fmt.Sprintf("combine %q: unknown member %q", comb.Name, m)})
			}
		}
	}
	return result.ErrorOrNil()
}
