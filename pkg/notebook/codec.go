package notebook

import (
	"context"

	"github.com/marmos91/nbcontents/internal/logger"
)

// Codec bundles parsing, serialization, validation and trust handling for
// the contents manager.
type Codec struct {
	notary *Notary
}

// NewCodec returns a Codec signing with notary. A nil notary disables trust
// handling: nothing is signed and cells are left as stored.
func NewCodec(notary *Notary) *Codec {
	return &Codec{notary: notary}
}

func (c *Codec) Parse(text string) (*Notebook, error) {
	return Parse(text)
}

func (c *Codec) Serialize(nb *Notebook) (string, error) {
	return Serialize(nb)
}

func (c *Codec) Validate(nb *Notebook) error {
	return nb.Validate()
}

// MarkTrusted flags every code cell as trusted when the notebook's
// signature is known, untrusted otherwise.
func (c *Codec) MarkTrusted(ctx context.Context, nb *Notebook, path string) {
	if c.notary == nil {
		return
	}

	trusted, err := c.notary.CheckSignature(ctx, nb)
	if err != nil {
		logger.Warn("Signature check for notebook %s failed: %v", path, err)
		trusted = false
	}
	if !trusted {
		logger.Warn("Notebook %s is not trusted", path)
	}
	c.notary.MarkCells(nb, trusted)
}

// Sign records the notebook's signature when all of its code cells are
// trusted. Notebooks with untrusted output are saved unsigned.
func (c *Codec) Sign(ctx context.Context, nb *Notebook, path string) error {
	if c.notary == nil {
		return nil
	}

	if !c.notary.CheckCells(nb) {
		logger.Warn("Notebook %s is not trusted", path)
		return nil
	}
	return c.notary.Sign(ctx, nb)
}
