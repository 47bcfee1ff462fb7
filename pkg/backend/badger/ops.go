package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/vpath"
)

// ============================================================================
// Read Operations
// ============================================================================

func (b *Backend) Stat(ctx context.Context, path string) (*backend.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var md *backend.Metadata
	err := b.db.View(func(txn *badger.Txn) error {
		r, err := getRecord(txn, path)
		if err != nil {
			return err
		}
		md = r.metadata(path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return md, nil
}

func (b *Backend) List(ctx context.Context, path string) ([]*backend.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var children []*backend.Metadata
	err := b.db.View(func(txn *badger.Txn) error {
		dir, err := getRecord(txn, path)
		if err != nil {
			return err
		}
		if !dir.Dir {
			return backend.ErrNotDirectory
		}

		prefix := keyChildPrefix(path)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			name := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
			childPath := joinChild(path, name)
			r, err := getRecord(txn, childPath)
			if err != nil {
				return fmt.Errorf("child %s: %w", childPath, err)
			}
			children = append(children, r.metadata(childPath))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	return children, nil
}

func (b *Backend) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stored []byte
	err := b.db.View(func(txn *badger.Txn) error {
		r, err := getRecord(txn, path)
		if err != nil {
			return err
		}
		if r.Dir {
			return backend.ErrIsDirectory
		}

		item, err := txn.Get(keyData(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			stored = nil
			return nil
		}
		if err != nil {
			return err
		}
		stored, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b.codec.decode(stored)
}

func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var exists bool
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(keyEntry(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		exists = err == nil
		return err
	})
	return exists, err
}

// ============================================================================
// Write Operations
// ============================================================================

func (b *Backend) Write(ctx context.Context, path string, data []byte, opts backend.WriteOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("write %s: %w", path, backend.ErrReadOnly)
	}

	body := b.codec.encode(data)
	ts := b.now()

	err := b.db.Update(func(txn *badger.Txn) error {
		parent, name := vpath.Split(path)
		if err := requireDir(txn, parent); err != nil {
			return err
		}

		r, err := getRecord(txn, path)
		switch {
		case errors.Is(err, backend.ErrNotFound):
			r = &record{MimeType: opts.MimeType, Created: ts}
			if err := txn.Set(keyChild(parent, name), nil); err != nil {
				return err
			}
		case err != nil:
			return err
		case r.Dir:
			return backend.ErrIsDirectory
		default:
			if opts.MimeType != "" {
				r.MimeType = opts.MimeType
			}
		}

		r.Size = int64(len(data))
		r.Modified = ts
		if err := putRecord(txn, path, r); err != nil {
			return err
		}
		return txn.Set(keyData(path), body)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (b *Backend) Mkdir(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("mkdir %s: %w", path, backend.ErrReadOnly)
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		r, err := getRecord(txn, path)
		if err == nil {
			if r.Dir {
				return nil
			}
			return backend.ErrExists
		}
		if !errors.Is(err, backend.ErrNotFound) {
			return err
		}

		parent, name := vpath.Split(path)
		if err := requireDir(txn, parent); err != nil {
			return err
		}

		ts := b.now()
		if err := putRecord(txn, path, &record{Dir: true, Created: ts, Modified: ts}); err != nil {
			return err
		}
		return txn.Set(keyChild(parent, name), nil)
	})
	if err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// Move relocates an entry and, for directories, every descendant in one
// transaction.
func (b *Backend) Move(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("move %s: %w", oldPath, backend.ErrReadOnly)
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		src, err := getRecord(txn, oldPath)
		if err != nil {
			return err
		}
		if _, err := getRecord(txn, newPath); err == nil {
			return backend.ErrExists
		} else if !errors.Is(err, backend.ErrNotFound) {
			return err
		}
		if err := requireDir(txn, vpath.Dir(newPath)); err != nil {
			return err
		}
		if src.Dir && vpath.HasPrefix(newPath, oldPath) {
			return fmt.Errorf("into itself: %w", backend.ErrExists)
		}

		paths := []string{oldPath}
		if src.Dir {
			descendants, err := collectDescendants(txn, oldPath)
			if err != nil {
				return err
			}
			paths = append(paths, descendants...)
		}

		for _, p := range paths {
			if err := moveOne(txn, p, vpath.Rebase(p, oldPath, newPath)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("move %s to %s: %w", oldPath, newPath, err)
	}
	return nil
}

func collectDescendants(txn *badger.Txn, dir string) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = keyEntryDescendants(dir)

	it := txn.NewIterator(opts)
	defer it.Close()

	var paths []string
	for it.Rewind(); it.Valid(); it.Next() {
		paths = append(paths, strings.TrimPrefix(string(it.Item().Key()), "e:"))
	}
	return paths, nil
}

// moveOne rewrites the record, body and child link of a single path.
func moveOne(txn *badger.Txn, from, to string) error {
	r, err := getRecord(txn, from)
	if err != nil {
		return err
	}
	if err := putRecord(txn, to, r); err != nil {
		return err
	}
	if err := txn.Delete(keyEntry(from)); err != nil {
		return err
	}

	if !r.Dir {
		item, err := txn.Get(keyData(from))
		if err == nil {
			body, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := txn.Set(keyData(to), body); err != nil {
				return err
			}
			if err := txn.Delete(keyData(from)); err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
	}

	fromParent, fromName := vpath.Split(from)
	toParent, toName := vpath.Split(to)
	if err := txn.Delete(keyChild(fromParent, fromName)); err != nil {
		return err
	}
	return txn.Set(keyChild(toParent, toName), nil)
}

func (b *Backend) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("remove %s: %w", path, backend.ErrReadOnly)
	}
	if path == vpath.Root {
		return fmt.Errorf("remove %s: %w", path, backend.ErrNotFound)
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		r, err := getRecord(txn, path)
		if err != nil {
			return err
		}
		if r.Dir && hasChildren(txn, path) {
			return backend.ErrNotEmpty
		}

		parent, name := vpath.Split(path)
		if err := txn.Delete(keyEntry(path)); err != nil {
			return err
		}
		if err := txn.Delete(keyData(path)); err != nil {
			return err
		}
		return txn.Delete(keyChild(parent, name))
	})
	if err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func joinChild(parent, name string) string {
	if parent == vpath.Root {
		return "/" + name
	}
	return parent + "/" + name
}
