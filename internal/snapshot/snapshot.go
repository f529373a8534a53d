// Package snapshot produces and consumes portable JSON documents of the full
// ledger. Export is a pure function of current state; import validates the
// payload before anything replaces the ledger.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"financeiro/internal/core"
)

// ErrMissingExpenses reports an import payload without the required
// top-level expenses field.
var ErrMissingExpenses = errors.New("payload missing expenses field")

// Export renders the snapshot as an indented JSON document together with a
// suggested filename tagged with the export date, e.g.
// backup_financeiro_2025-01-15.json.
func Export(snap core.Snapshot, now time.Time) ([]byte, string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("marshal snapshot: %w", err)
	}
	name := fmt.Sprintf("backup_financeiro_%s.json", now.Format("2006-01-02"))
	return data, name, nil
}

// Import parses raw JSON into a normalized snapshot. The top level must
// carry an expenses field; anything else is rejected and the caller keeps
// its current ledger. Import is a full replace, never a merge.
func Import(raw []byte) (core.Snapshot, error) {
	var probe struct {
		Expenses *json.RawMessage `json:"expenses"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return core.Snapshot{}, fmt.Errorf("parse payload: %w", err)
	}
	if probe.Expenses == nil {
		return core.Snapshot{}, ErrMissingExpenses
	}

	var snap core.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap.Normalize(), nil
}
