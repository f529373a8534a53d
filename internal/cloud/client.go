// Package cloud talks to the optional remote mirror: a sheet-like HTTP
// endpoint that accepts the whole ledger as JSON and hands it back on GET.
// Everything here is best effort; failures are reported to the caller and
// never escalate past the persistence gateway.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"financeiro/internal/core"
)

var (
	// ErrInvalidSyncURL reports a sync URL outside the allowed schemes.
	ErrInvalidSyncURL = errors.New("invalid sync url: use https or localhost")

	// ErrNoRemoteData reports a pull whose body carries no expenses field;
	// the remote has nothing to load.
	ErrNoRemoteData = errors.New("remote carries no ledger data")
)

// ValidateSyncURL accepts https:// anywhere and http:// only to
// localhost/127.0.0.1 (development exception). Every other scheme or target
// is rejected before the URL is persisted or used.
func ValidateSyncURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch parsed.Scheme {
	case "https":
		return parsed.Host != ""
	case "http":
		host := parsed.Hostname()
		return host == "localhost" || host == "127.0.0.1"
	default:
		return false
	}
}

// pushPayload is the outbound wire shape: the snapshot plus the shared
// static token the remote endpoint checks.
type pushPayload struct {
	core.Snapshot
	Token string `json:"token"`
}

// Client pushes and pulls ledger snapshots.
type Client struct {
	httpClient *http.Client
	token      string
}

func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      token,
	}
}

// Push POSTs the whole snapshot to the configured URL. The body is JSON but
// the content type is text/plain;charset=utf-8 so restrictive endpoint
// runtimes accept it without a preflight.
func (c *Client) Push(ctx context.Context, rawURL string, snap core.Snapshot) error {
	if !ValidateSyncURL(rawURL) {
		return ErrInvalidSyncURL
	}

	body, err := json.Marshal(pushPayload{Snapshot: snap, Token: c.token})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post snapshot: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post snapshot: remote returned %s", resp.Status)
	}
	return nil
}

// Pull GETs the remote ledger. A body without an expenses field means
// "nothing to load" and reports ErrNoRemoteData.
func (c *Client) Pull(ctx context.Context, rawURL string) (core.Snapshot, error) {
	if !ValidateSyncURL(rawURL) {
		return core.Snapshot{}, ErrInvalidSyncURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return core.Snapshot{}, fmt.Errorf("fetch snapshot: remote returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read body: %w", err)
	}

	var probe struct {
		Expenses *json.RawMessage `json:"expenses"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return core.Snapshot{}, fmt.Errorf("parse remote body: %w", err)
	}
	if probe.Expenses == nil {
		return core.Snapshot{}, ErrNoRemoteData
	}

	var snap core.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("parse remote snapshot: %w", err)
	}
	return snap.Normalize(), nil
}
