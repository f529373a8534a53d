// Package codec is the reversible transform between the in-memory ledger and
// its storable text form: canonical JSON wrapped in AES-256-GCM. Decoding
// falls back to parsing the raw input as plain JSON so snapshots written
// before encryption was introduced keep loading.
//
// The codec knows nothing about where the bytes come from or go.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"financeiro/internal/core"
)

// keySalt is a fixed application salt. The secret is a build-time
// obfuscation key, not a user credential, so a per-install salt would buy
// nothing here.
var keySalt = []byte("financeiro.v1.ledger")

const keyIterations = 4096

// Codec seals and opens ledger snapshots with a key derived from the
// configured secret.
type Codec struct {
	key []byte
}

// New derives the AES key from the configured secret via PBKDF2-SHA256.
func New(secret string) *Codec {
	return &Codec{
		key: pbkdf2.Key([]byte(secret), keySalt, keyIterations, 32, sha256.New),
	}
}

// Encode serializes the snapshot to canonical JSON and seals it. The result
// is base64(nonce || ciphertext). On any failure the caller must treat the
// write as skipped rather than persisting a partial payload.
func (c *Codec) Encode(snap core.Snapshot) (string, error) {
	plain, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("init gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plain, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// decodeStrategy attempts one way of turning stored text into a snapshot.
type decodeStrategy func(c *Codec, text string) (*core.Snapshot, error)

// decodeStrategies are tried in order; the first success wins. Order
// matters: ciphertext first, then the legacy plaintext form.
var decodeStrategies = []decodeStrategy{
	(*Codec).decodeSealed,
	(*Codec).decodePlain,
}

// Decode attempts each strategy in sequence. When every strategy fails the
// result is (nil, nil): the caller treats the stored value as absent, never
// as a crash.
func (c *Codec) Decode(text string) (*core.Snapshot, error) {
	if text == "" {
		return nil, nil
	}
	for _, try := range decodeStrategies {
		if snap, err := try(c, text); err == nil {
			return snap, nil
		}
	}
	return nil, nil
}

// decodeSealed opens base64-wrapped AES-GCM ciphertext.
func (c *Codec) decodeSealed(text string) (*core.Snapshot, error) {
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	if len(raw) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext shorter than nonce")
	}

	plain, err := gcm.Open(nil, raw[:gcm.NonceSize()], raw[gcm.NonceSize():], nil)
	if err != nil {
		return nil, fmt.Errorf("open ciphertext: %w", err)
	}
	return parseSnapshot(plain)
}

// decodePlain parses the raw input directly as snapshot JSON. This is the
// migration path for pre-encryption snapshots.
func (c *Codec) decodePlain(text string) (*core.Snapshot, error) {
	return parseSnapshot([]byte(text))
}

func parseSnapshot(data []byte) (*core.Snapshot, error) {
	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}
