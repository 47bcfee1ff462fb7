package notebook

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// Algorithm is the signature scheme recorded alongside each signature.
const Algorithm = "sha256"

// SignatureStore records the signatures of notebooks the user has trusted.
type SignatureStore interface {
	// Store records a signature.
	Store(ctx context.Context, signature, algorithm string) error

	// Check reports whether a signature is recorded.
	Check(ctx context.Context, signature, algorithm string) (bool, error)

	// Remove forgets a signature. Missing signatures are not an error.
	Remove(ctx context.Context, signature, algorithm string) error

	// Close releases the store.
	Close() error
}

// Notary signs notebooks with an HMAC over their content and decides which
// cells may be rendered as trusted output.
//
// A notebook is trusted when its signature is in the store, meaning the
// user (or this server, when every code cell was already trusted) saved it
// last. Untrusted notebooks have every code cell marked untrusted so that
// front ends sanitize their output.
type Notary struct {
	secret []byte
	store  SignatureStore
}

// NewNotary creates a Notary. A nil store selects an in-memory store.
func NewNotary(secret []byte, store SignatureStore) *Notary {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Notary{secret: secret, store: store}
}

// GenerateSecret returns a random 32-byte HMAC key.
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate notary secret: %w", err)
	}
	return secret, nil
}

// ComputeSignature returns the hex HMAC-SHA256 of nb. The document-level
// "signature" metadata key and the per-cell "trusted" flags are excluded so
// that marking cells does not change the signature.
func (n *Notary) ComputeSignature(nb *Notebook) (string, error) {
	stripped, err := nb.Clone()
	if err != nil {
		return "", err
	}
	delete(stripped.Metadata, "signature")
	for _, c := range stripped.Cells {
		delete(c.Metadata, "trusted")
	}

	text, err := Serialize(stripped)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, n.secret)
	mac.Write([]byte(text))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Sign records nb's signature in the store.
func (n *Notary) Sign(ctx context.Context, nb *Notebook) error {
	sig, err := n.ComputeSignature(nb)
	if err != nil {
		return err
	}
	return n.store.Store(ctx, sig, Algorithm)
}

// Unsign removes nb's signature from the store.
func (n *Notary) Unsign(ctx context.Context, nb *Notebook) error {
	sig, err := n.ComputeSignature(nb)
	if err != nil {
		return err
	}
	return n.store.Remove(ctx, sig, Algorithm)
}

// CheckSignature reports whether nb's signature is recorded.
func (n *Notary) CheckSignature(ctx context.Context, nb *Notebook) (bool, error) {
	sig, err := n.ComputeSignature(nb)
	if err != nil {
		return false, err
	}
	return n.store.Check(ctx, sig, Algorithm)
}

// MarkCells sets the "trusted" metadata flag on every code cell.
func (n *Notary) MarkCells(nb *Notebook, trusted bool) {
	for _, c := range nb.Cells {
		if c.CellType != CellCode {
			continue
		}
		if c.Metadata == nil {
			c.Metadata = map[string]any{}
		}
		c.Metadata["trusted"] = trusted
	}
}

// CheckCells reports whether every code cell is trusted. Cells without
// rich output are always safe.
func (n *Notary) CheckCells(nb *Notebook) bool {
	for _, c := range nb.Cells {
		if !cellTrusted(c) {
			return false
		}
	}
	return true
}

// safeOutputKeys are the only keys an execute_result or display_data output
// may carry and still be trusted unsigned. Any "data" bundle, even plain
// text, needs a signature; stream and error outputs are always safe. This
// is the nbformat v4 rule.
var safeOutputKeys = map[string]bool{"output_type": true, "execution_count": true, "metadata": true}

func cellTrusted(c *Cell) bool {
	if c.CellType != CellCode {
		return true
	}
	if trusted, _ := c.Metadata["trusted"].(bool); trusted {
		return true
	}
	for _, out := range c.Outputs {
		switch out["output_type"] {
		case "execute_result", "display_data":
			for key := range out {
				if !safeOutputKeys[key] {
					return false
				}
			}
		}
	}
	return true
}

// Close closes the signature store.
func (n *Notary) Close() error {
	return n.store.Close()
}

// MemoryStore is a SignatureStore kept in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	sigs map[string]struct{}
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sigs: make(map[string]struct{})}
}

func (s *MemoryStore) Store(_ context.Context, signature, algorithm string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sigs[algorithm+":"+signature] = struct{}{}
	return nil
}

func (s *MemoryStore) Check(_ context.Context, signature, algorithm string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sigs[algorithm+":"+signature]
	return ok, nil
}

func (s *MemoryStore) Remove(_ context.Context, signature, algorithm string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sigs, algorithm+":"+signature)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
