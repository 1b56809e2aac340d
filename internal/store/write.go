package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nilvalls/TTHTauTau-Roast/internal/process"
)

// SaveRecord appends a snapshot of r and returns its ID.
//
// The snapshot and all its histograms are written in one transaction;
// a failure leaves the store unchanged.
func (s *Store) SaveRecord(ctx context.Context, r *process.Record) (string, error) {
	if r.ShortName == "" {
		return "", fmt.Errorf("save record: empty short name")
	}

	state, err := marshalState(r.State())
	if err != nil {
		return "", fmt.Errorf("save record %q: %w", r.ShortName, err)
	}

	var hists []storedHistogram
	for _, name := range r.HistogramNames() {
		w, _ := r.Histogram(name)
		if w == nil {
			continue
		}
		meta, bins, err := marshalHistogram(w)
		if err != nil {
			return "", fmt.Errorf("save record %q: %w", r.ShortName, err)
		}
		hists = append(hists, storedHistogram{name: name, meta: meta, bins: bins})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save record %q: begin: %w", r.ShortName, err)
	}
	defer tx.Rollback()

	id := s.ids.Generate()
	if err := insertSnapshot(ctx, tx, id, r.ShortName, s.now(), snapshotDigest(state, hists), state); err != nil {
		return "", fmt.Errorf("save record %q: %w", r.ShortName, err)
	}

	for _, h := range hists {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO histograms (snapshot_id, name, meta, bins)
			VALUES (?, ?, ?, ?)
		`, id, h.name, h.meta, h.bins); err != nil {
			return "", fmt.Errorf("save record %q: histogram %q: %w", r.ShortName, h.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save record %q: commit: %w", r.ShortName, err)
	}

	s.logger.Debug("saved snapshot",
		"process", r.ShortName,
		"snapshot", id,
		"histograms", len(r.HistogramNames()),
		"normalized", r.NormalizedHistos())
	return id, nil
}

// SaveSet saves every record of set in order and returns the snapshot IDs.
// It stops at the first failure; snapshots already written are kept.
func (s *Store) SaveSet(ctx context.Context, set *process.Set) ([]string, error) {
	ids := make([]string, 0, set.Len())
	for _, r := range set.All() {
		id, err := s.SaveRecord(ctx, r)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// insertSnapshot assigns the next seq inside tx.
func insertSnapshot(ctx context.Context, tx *sql.Tx, id, proc string, created time.Time, digest, state string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, process, seq, created_at, digest, state)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots), ?, ?, ?)
	`, id, proc, created.UTC().Format(time.RFC3339Nano), digest, state)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}
