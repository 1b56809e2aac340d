// Package store provides SQLite-backed persistence for process records.
//
// The store is append-only: each SaveRecord writes a new snapshot holding
// the record's metadata, counters, flags, good events, both cut-flows and
// every histogram. Loading a record returns its latest snapshot.
//
// # Ordering
//
// Snapshots are ordered by seq, a store-wide logical counter, never by
// created_at. Snapshot IDs are UUIDv7 so they also sort by creation.
//
// # Non-finite values
//
// Normalization may legitimately produce NaN or infinite counts. Cut-flow
// counts, catalog constants and event weights are stored as JSON numbers
// when finite and as the strings "NaN", "+Inf" and "-Inf" otherwise.
// Histograms are stored with go-hep's hbook binary encoding and round-trip
// bit for bit.
//
// # Combinations
//
// The combination definitions of the last imported catalog are kept in
// their own table. Combined records are saved as ordinary snapshots once
// they have been rebuilt from normalized members.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
