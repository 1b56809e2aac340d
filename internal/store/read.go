package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nilvalls/TTHTauTau-Roast/internal/histo"
	"github.com/nilvalls/TTHTauTau-Roast/internal/process"
)

// Snapshot describes one stored snapshot without its payload.
type Snapshot struct {
	ID        string    `json:"id"`
	Process   string    `json:"process"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
	Digest    string    `json:"digest"`
}

// LoadRecord returns the latest snapshot of the process named name.
// Returns an error wrapping sql.ErrNoRows if the process was never saved.
func (s *Store) LoadRecord(ctx context.Context, name string) (*process.Record, error) {
	var id, state string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, state FROM snapshots
		WHERE process = ?
		ORDER BY seq DESC
		LIMIT 1
	`, name).Scan(&id, &state)
	if err != nil {
		return nil, fmt.Errorf("load record %q: %w", name, err)
	}
	return s.restore(ctx, id, state)
}

// LoadSnapshot returns the record stored under snapshot id.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) LoadSnapshot(ctx context.Context, id string) (*process.Record, error) {
	var state string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM snapshots WHERE id = ?`, id).Scan(&state)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return s.restore(ctx, id, state)
}

// ListRecords returns the latest snapshot of every process, ordered by the
// first time each process was saved.
//
// Returns an empty slice (not nil) for an empty store.
func (s *Store) ListRecords(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.process, s.seq, s.created_at, s.digest
		FROM snapshots s
		JOIN (
			SELECT process, MIN(seq) AS first_seq, MAX(seq) AS last_seq
			FROM snapshots GROUP BY process
		) p ON p.process = s.process AND p.last_seq = s.seq
		ORDER BY p.first_seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return scanSnapshots(rows)
}

// History returns every snapshot of the process named name, oldest first.
func (s *Store) History(ctx context.Context, name string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, process, seq, created_at, digest
		FROM snapshots
		WHERE process = ?
		ORDER BY seq ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("history %q: %w", name, err)
	}
	return scanSnapshots(rows)
}

// LoadSet loads the latest snapshot of every process into a set, in
// ListRecords order.
func (s *Store) LoadSet(ctx context.Context) (*process.Set, error) {
	snaps, err := s.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	set := process.NewSet()
	for _, snap := range snaps {
		r, err := s.LoadSnapshot(ctx, snap.ID)
		if err != nil {
			return nil, err
		}
		set.Put(r)
	}
	return set, nil
}

func (s *Store) restore(ctx context.Context, id, state string) (*process.Record, error) {
	st, err := unmarshalState(state)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", id, err)
	}
	histos, err := s.readHistograms(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", id, err)
	}
	return process.Restore(st, histos), nil
}

func (s *Store) readHistograms(ctx context.Context, snapshotID string) (map[string]*histo.Wrapper, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, meta, bins
		FROM histograms
		WHERE snapshot_id = ?
		ORDER BY name COLLATE BINARY ASC
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query histograms: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*histo.Wrapper)
	for rows.Next() {
		var name, meta string
		var bins []byte
		if err := rows.Scan(&name, &meta, &bins); err != nil {
			return nil, fmt.Errorf("scan histogram: %w", err)
		}
		w, err := unmarshalHistogram(name, meta, bins)
		if err != nil {
			return nil, err
		}
		out[name] = w
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate histograms: %w", err)
	}
	return out, nil
}

func scanSnapshots(rows *sql.Rows) ([]Snapshot, error) {
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		var created string
		if err := rows.Scan(&snap.ID, &snap.Process, &snap.Seq, &created, &snap.Digest); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: created_at: %w", snap.ID, err)
		}
		snap.CreatedAt = t
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}
