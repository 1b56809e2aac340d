package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Combination names a record built by merging member processes.
type Combination struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// SaveCombinations replaces the stored combination definitions with combs,
// keeping their order.
func (s *Store) SaveCombinations(ctx context.Context, combs []Combination) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save combinations: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM combinations`); err != nil {
		return fmt.Errorf("save combinations: %w", err)
	}
	for i, c := range combs {
		members, err := json.Marshal(c.Members)
		if err != nil {
			return fmt.Errorf("save combination %q: %w", c.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO combinations (name, position, members)
			VALUES (?, ?, ?)
		`, c.Name, i, string(members)); err != nil {
			return fmt.Errorf("save combination %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save combinations: commit: %w", err)
	}
	return nil
}

// Combinations returns the stored combination definitions in catalog order.
//
// Returns an empty slice (not nil) when none are stored.
func (s *Store) Combinations(ctx context.Context) ([]Combination, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, members FROM combinations ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query combinations: %w", err)
	}
	defer rows.Close()

	combs := []Combination{}
	for rows.Next() {
		var c Combination
		var members string
		if err := rows.Scan(&c.Name, &members); err != nil {
			return nil, fmt.Errorf("scan combination: %w", err)
		}
		if err := json.Unmarshal([]byte(members), &c.Members); err != nil {
			return nil, fmt.Errorf("combination %q members: %w", c.Name, err)
		}
		combs = append(combs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate combinations: %w", err)
	}
	return combs, nil
}
