package badger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/vpath"
)

// record is the persisted form of an entry.
type record struct {
	Dir      bool      `json:"dir"`
	Size     int64     `json:"size"`
	MimeType string    `json:"mime,omitempty"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

func encodeRecord(r *record) ([]byte, error) {
	bytes, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return bytes, nil
}

func decodeRecord(bytes []byte) (*record, error) {
	var r record
	if err := json.Unmarshal(bytes, &r); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &r, nil
}

func (r *record) metadata(path string) *backend.Metadata {
	md := &backend.Metadata{
		Path:     path,
		Name:     vpath.Base(path),
		IsDir:    r.Dir,
		IsFile:   !r.Dir,
		Created:  r.Created,
		Modified: r.Modified,
	}
	if !r.Dir {
		md.Size = r.Size
		md.MimeType = r.MimeType
	}
	return md
}

// Body codecs. The first byte of every stored body names its codec, so
// bodies written before a compression change stay readable.
const (
	codecRaw  byte = 0
	codecZstd byte = 1

	// minCompressSize skips compression for bodies too small to benefit.
	minCompressSize = 512
)

type bodyCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newBodyCodec(compress bool) (*bodyCodec, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	c := &bodyCodec{dec: dec}
	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			dec.Close()
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		c.enc = enc
	}
	return c, nil
}

func (c *bodyCodec) encode(data []byte) []byte {
	if c.enc == nil || len(data) < minCompressSize {
		out := make([]byte, 0, len(data)+1)
		return append(append(out, codecRaw), data...)
	}
	out := make([]byte, 1, len(data)/2+1)
	out[0] = codecZstd
	return c.enc.EncodeAll(data, out)
}

func (c *bodyCodec) decode(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return []byte{}, nil
	}
	switch stored[0] {
	case codecRaw:
		out := make([]byte, len(stored)-1)
		copy(out, stored[1:])
		return out, nil
	case codecZstd:
		out, err := c.dec.DecodeAll(stored[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress body: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown body codec %d", stored[0])
}

func (c *bodyCodec) close() {
	if c.enc != nil {
		_ = c.enc.Close()
	}
	c.dec.Close()
}
