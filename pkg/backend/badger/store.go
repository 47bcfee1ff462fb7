// Package badger implements backend.Backend on an embedded BadgerDB
// database.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/vpath"
)

// Config configures a badger Backend.
type Config struct {
	// Path is the directory holding the database files. Ignored when
	// InMemory is set.
	Path string `mapstructure:"path"`

	// InMemory keeps the database in RAM only.
	InMemory bool `mapstructure:"in_memory"`

	// Compression stores file bodies zstd-compressed.
	Compression bool `mapstructure:"compression"`

	// ReadOnly rejects every mutation with backend.ErrReadOnly.
	ReadOnly bool `mapstructure:"read_only"`

	// BadgerOptions overrides the generated BadgerDB options.
	BadgerOptions *badger.Options `mapstructure:"-"`
}

// Backend stores a contents tree in BadgerDB.
//
// Each call runs in a single BadgerDB transaction, so Move relocates a whole
// subtree atomically. Very large subtrees can exceed the transaction size
// limit; the move then fails and leaves the tree unchanged.
type Backend struct {
	db       *badger.DB
	codec    *bodyCodec
	readOnly bool
	now      func() time.Time
}

// Open opens (or creates) the database described by cfg and ensures the
// root directory exists.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	switch {
	case cfg.BadgerOptions != nil:
		opts = *cfg.BadgerOptions
	case cfg.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	default:
		opts = badger.DefaultOptions(cfg.Path)
	}
	if cfg.BadgerOptions == nil {
		opts = opts.WithLoggingLevel(badger.WARNING)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.Path, err)
	}

	codec, err := newBodyCodec(cfg.Compression)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	b := &Backend{db: db, codec: codec, readOnly: cfg.ReadOnly, now: time.Now}
	if err := b.ensureRoot(); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to initialize root: %w", err)
	}
	return b, nil
}

func (b *Backend) ensureRoot() error {
	return b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyEntry(vpath.Root))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		ts := b.now()
		return putRecord(txn, vpath.Root, &record{Dir: true, Created: ts, Modified: ts})
	})
}

// Ping runs an empty read transaction.
func (b *Backend) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(*badger.Txn) error { return nil })
}

// Close flushes and closes the database.
func (b *Backend) Close() error {
	b.codec.close()
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

// ============================================================================
// Transaction helpers
// ============================================================================

func getRecord(txn *badger.Txn, path string) (*record, error) {
	item, err := txn.Get(keyEntry(path))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var r *record
	err = item.Value(func(val []byte) error {
		r, err = decodeRecord(val)
		return err
	})
	return r, err
}

func putRecord(txn *badger.Txn, path string, r *record) error {
	bytes, err := encodeRecord(r)
	if err != nil {
		return err
	}
	return txn.Set(keyEntry(path), bytes)
}

func requireDir(txn *badger.Txn, path string) error {
	r, err := getRecord(txn, path)
	if err != nil {
		return fmt.Errorf("parent %s: %w", path, err)
	}
	if !r.Dir {
		return fmt.Errorf("parent %s: %w", path, backend.ErrNotDirectory)
	}
	return nil
}

func hasChildren(txn *badger.Txn, dir string) bool {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = keyChildPrefix(dir)

	it := txn.NewIterator(opts)
	defer it.Close()

	it.Rewind()
	return it.Valid()
}

var _ backend.Backend = (*Backend)(nil)
var _ backend.Pinger = (*Backend)(nil)
