package persist

import (
	"context"

	"financeiro/internal/core"
)

// Ports for outbound adapters.
type (
	// StateStore is the local durable store: one key for the encoded
	// ledger, plain keys for settings.
	StateStore interface {
		LoadState(ctx context.Context) (string, error)
		SaveState(ctx context.Context, payload string) error
		GetSetting(ctx context.Context, key string) (string, error)
		SetSetting(ctx context.Context, key, value string) error
		Close() error
	}

	// Mirror replicates snapshots to and from the remote endpoint.
	Mirror interface {
		Push(ctx context.Context, url string, snap core.Snapshot) error
		Pull(ctx context.Context, url string) (core.Snapshot, error)
	}
)
