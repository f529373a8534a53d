// Package persist bridges the ledger and durable storage. Every change is
// encoded and written locally right away; cloud pushes are debounced so a
// burst of edits coalesces into one network call. Failures on either path
// are reported and logged, never propagated into the ledger: the in-memory
// state stays authoritative for the session.
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"financeiro/internal/cloud"
	"financeiro/internal/codec"
	"financeiro/internal/core"
	"financeiro/internal/log"
	"financeiro/internal/storage"
)

// DefaultDebounce is how long after the last mutation the cloud push fires.
const DefaultDebounce = 2 * time.Second

// Gateway owns local persistence and the debounced remote sync.
type Gateway struct {
	store    StateStore
	codec    *codec.Codec
	mirror   Mirror
	debounce time.Duration

	// Lifecycle management
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	kickCh   chan struct{}
	pending  *core.Snapshot
	cloudURL string
}

// NewGateway wires the gateway. A zero debounce falls back to the default.
func NewGateway(store StateStore, c *codec.Codec, mirror Mirror, debounce time.Duration) *Gateway {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Gateway{
		store:    store,
		codec:    c,
		mirror:   mirror,
		debounce: debounce,
		kickCh:   make(chan struct{}, 1),
	}
}

// Start launches the debounce loop. Returns an error if already running.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return fmt.Errorf("persistence gateway is already running")
	}
	g.running = true
	g.stopCh = make(chan struct{})
	g.doneCh = make(chan struct{})
	g.mu.Unlock()

	go g.runLoop()

	slog.InfoContext(ctx, "Persistence gateway started", "debounce", g.debounce)
	return nil
}

// Stop flushes any pending push and waits for the loop to exit. Safe to
// call concurrently; only the caller that observes the gateway running
// closes the loop, everyone else returns right away.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return nil
	}
	g.running = false
	stopCh, doneCh := g.stopCh, g.doneCh
	g.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Persistence gateway stopped")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Persistence gateway stop timed out")
		return ctx.Err()
	}
	return nil
}

// IsRunning reports whether the debounce loop is active.
func (g *Gateway) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// runLoop waits out the debounce window after the latest change, then
// pushes. Pushes run serially on this goroutine, so a stale in-flight write
// can never overlap a newer one.
func (g *Gateway) runLoop() {
	defer close(g.doneCh)

	timer := time.NewTimer(g.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-g.stopCh:
			// Final flush so an edit right before shutdown still syncs
			g.flush(context.Background())
			return
		case <-g.kickCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(g.debounce)
		case <-timer.C:
			g.flush(context.Background())
		}
	}
}

// flush pushes the latest pending snapshot, if any. Only the state at fire
// time is ever sent; intermediate revisions are coalesced away.
func (g *Gateway) flush(ctx context.Context) {
	g.mu.Lock()
	snap := g.pending
	g.pending = nil
	url := g.cloudURL
	g.mu.Unlock()

	if snap == nil || url == "" {
		return
	}
	if err := g.mirror.Push(ctx, url, *snap); err != nil {
		slog.ErrorContext(ctx, "Cloud sync failed",
			log.FieldComponent, log.ComponentPersist,
			log.FieldOperation, log.OpSync,
			log.FieldError, err)
		return
	}
	slog.DebugContext(ctx, "Snapshot synced to cloud",
		"expenses", len(snap.Expenses),
		"debts", len(snap.Debts),
		"incomes", len(snap.Incomes))
}

// HandleChange is the ledger's after-mutation hook: write locally, then
// schedule the debounced push. Neither failure blocks the mutation path.
func (g *Gateway) HandleChange(snap core.Snapshot) {
	ctx := context.Background()
	if err := g.SaveLocal(ctx, snap); err != nil {
		slog.ErrorContext(ctx, "Local persistence failed",
			log.FieldComponent, log.ComponentPersist,
			log.FieldError, err)
	}
	g.scheduleSync(snap)
}

// SaveLocal encodes and writes the snapshot to the local store. An encode
// failure skips the write entirely so a broken payload never lands on disk.
func (g *Gateway) SaveLocal(ctx context.Context, snap core.Snapshot) error {
	text, err := g.codec.Encode(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := g.store.SaveState(ctx, text); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func (g *Gateway) scheduleSync(snap core.Snapshot) {
	g.mu.Lock()
	configured := g.cloudURL != ""
	if configured {
		g.pending = &snap
	}
	g.mu.Unlock()

	if !configured {
		return
	}
	select {
	case g.kickCh <- struct{}{}:
	default:
	}
}

// LoadInitial restores the session: decode the local state (absent or
// undecodable becomes an empty ledger), read the configured cloud URL, and
// when one is set attempt a single fetch-and-replace. A failed pull keeps
// the local ledger and is only logged.
func (g *Gateway) LoadInitial(ctx context.Context) (core.Snapshot, error) {
	text, err := g.store.LoadState(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load state: %w", err)
	}

	var snap core.Snapshot
	if decoded, err := g.codec.Decode(text); err == nil && decoded != nil {
		snap = decoded.Normalize()
	}

	url, err := g.store.GetSetting(ctx, storage.KeyCloudURL)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read cloud url setting", "error", err)
		return snap, nil
	}
	g.mu.Lock()
	g.cloudURL = url
	g.mu.Unlock()

	if url == "" {
		return snap, nil
	}
	remote, err := g.mirror.Pull(ctx, url)
	if err != nil {
		slog.WarnContext(ctx, "Startup cloud pull failed, keeping local ledger", "error", err)
		return snap, nil
	}
	slog.InfoContext(ctx, "Ledger restored from cloud",
		"expenses", len(remote.Expenses),
		"debts", len(remote.Debts),
		"incomes", len(remote.Incomes))
	return remote, nil
}

// CloudURL returns the currently configured sync URL, "" when disabled.
func (g *Gateway) CloudURL() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cloudURL
}

// ConfigureCloudURL validates and persists the sync URL, then attempts one
// fetch-and-replace pull. An empty URL disables sync. The returned snapshot
// is non-nil when the remote had data to load; a pull failure leaves the URL
// configured and is reported to the caller.
func (g *Gateway) ConfigureCloudURL(ctx context.Context, url string) (*core.Snapshot, error) {
	if url != "" && !cloud.ValidateSyncURL(url) {
		return nil, cloud.ErrInvalidSyncURL
	}
	if err := g.store.SetSetting(ctx, storage.KeyCloudURL, url); err != nil {
		return nil, fmt.Errorf("persist cloud url: %w", err)
	}

	g.mu.Lock()
	g.cloudURL = url
	if url == "" {
		g.pending = nil
	}
	g.mu.Unlock()

	if url == "" {
		slog.InfoContext(ctx, "Cloud sync disabled")
		return nil, nil
	}

	remote, err := g.mirror.Pull(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("initial pull: %w", err)
	}
	return &remote, nil
}

// ForceSync pushes the snapshot immediately, bypassing the debounce window.
func (g *Gateway) ForceSync(ctx context.Context, snap core.Snapshot) error {
	url := g.CloudURL()
	if url == "" {
		return fmt.Errorf("cloud sync not configured")
	}
	if err := g.mirror.Push(ctx, url, snap); err != nil {
		return fmt.Errorf("force sync: %w", err)
	}
	return nil
}

// PullRemote fetches the remote ledger using the configured URL.
func (g *Gateway) PullRemote(ctx context.Context) (core.Snapshot, error) {
	url := g.CloudURL()
	if url == "" {
		return core.Snapshot{}, fmt.Errorf("cloud sync not configured")
	}
	return g.mirror.Pull(ctx, url)
}

// ShowPet reads the pet-visibility preference; defaults to visible when the
// key has never been written.
func (g *Gateway) ShowPet(ctx context.Context) bool {
	v, err := g.store.GetSetting(ctx, storage.KeyShowPet)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read pet preference", "error", err)
		return true
	}
	return v != "false"
}

// SetShowPet persists the pet-visibility preference as boolean text.
func (g *Gateway) SetShowPet(ctx context.Context, visible bool) error {
	value := "true"
	if !visible {
		value = "false"
	}
	if err := g.store.SetSetting(ctx, storage.KeyShowPet, value); err != nil {
		return fmt.Errorf("persist pet preference: %w", err)
	}
	return nil
}
