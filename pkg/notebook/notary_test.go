package notebook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func richNotebook() *Notebook {
	nb := New()
	cell := NewCodeCell("display(html)")
	cell.Outputs = append(cell.Outputs, map[string]any{
		"output_type": "display_data",
		"data":        map[string]any{"text/html": "<script>alert(1)</script>"},
		"metadata":    map[string]any{},
	})
	nb.Cells = append(nb.Cells, cell, NewMarkdownCell("notes"))
	return nb
}

func TestSignAndCheck(t *testing.T) {
	ctx := context.Background()
	notary := NewNotary([]byte("secret"), nil)
	nb := richNotebook()

	ok, err := notary.CheckSignature(ctx, nb)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, notary.Sign(ctx, nb))

	ok, err = notary.CheckSignature(ctx, nb)
	require.NoError(t, err)
	assert.True(t, ok)

	notary.MarkCells(nb, true)
	ok, err = notary.CheckSignature(ctx, nb)
	require.NoError(t, err)
	assert.True(t, ok, "trusted flags do not affect the signature")

	nb.Cells[1].Source = "edited"
	ok, err = notary.CheckSignature(ctx, nb)
	require.NoError(t, err)
	assert.False(t, ok, "edits invalidate the signature")
}

func TestSignatureDependsOnSecret(t *testing.T) {
	nb := richNotebook()

	a, err := NewNotary([]byte("one"), nil).ComputeSignature(nb)
	require.NoError(t, err)
	b, err := NewNotary([]byte("two"), nil).ComputeSignature(nb)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}

func TestCheckCells(t *testing.T) {
	notary := NewNotary([]byte("secret"), nil)

	plain := New()
	plain.Cells = append(plain.Cells, NewCodeCell("1 + 1"))
	assert.True(t, notary.CheckCells(plain), "cells without rich output are safe")

	rich := richNotebook()
	assert.False(t, notary.CheckCells(rich))

	notary.MarkCells(rich, true)
	assert.True(t, notary.CheckCells(rich))
	assert.Equal(t, true, rich.Cells[0].Metadata["trusted"])
	assert.NotContains(t, rich.Cells[1].Metadata, "trusted", "only code cells are marked")
}

func TestCheckCellsOutputTypes(t *testing.T) {
	notary := NewNotary([]byte("secret"), nil)

	tests := []struct {
		name    string
		output  map[string]any
		trusted bool
	}{
		{"stream", map[string]any{"output_type": "stream", "name": "stdout", "text": "hi\n"}, true},
		{"error", map[string]any{"output_type": "error", "ename": "ValueError", "evalue": "", "traceback": []any{}}, true},
		{"result without data", map[string]any{"output_type": "execute_result", "execution_count": 1, "metadata": map[string]any{}}, true},
		{"plain text result", map[string]any{"output_type": "execute_result", "execution_count": 1, "metadata": map[string]any{}, "data": map[string]any{"text/plain": "2"}}, false},
		{"png display", map[string]any{"output_type": "display_data", "metadata": map[string]any{}, "data": map[string]any{"image/png": "iVBORw0KGgo="}}, false},
		{"html display", map[string]any{"output_type": "display_data", "metadata": map[string]any{}, "data": map[string]any{"text/html": "<b>x</b>"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nb := New()
			cell := NewCodeCell("x")
			cell.Outputs = append(cell.Outputs, tt.output)
			nb.Cells = append(nb.Cells, cell)
			assert.Equal(t, tt.trusted, notary.CheckCells(nb))
		})
	}
}

func TestUnsign(t *testing.T) {
	ctx := context.Background()
	notary := NewNotary([]byte("secret"), nil)
	nb := richNotebook()

	require.NoError(t, notary.Sign(ctx, nb))
	require.NoError(t, notary.Unsign(ctx, nb))

	ok, err := notary.CheckSignature(ctx, nb)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteStore(":memory:", 2)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Store(ctx, "aaa", Algorithm))
	require.NoError(t, store.Store(ctx, "aaa", Algorithm), "storing twice is an upsert")

	ok, err := store.Check(ctx, "aaa", Algorithm)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Check(ctx, "aaa", "md5")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Store(ctx, "bbb", Algorithm))
	require.NoError(t, store.Store(ctx, "ccc", Algorithm))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "table is culled to the configured size")

	require.NoError(t, store.Remove(ctx, "ccc", Algorithm))
	ok, err = store.Check(ctx, "ccc", Algorithm)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStorePersists(t *testing.T) {
	ctx := context.Background()
	dsn := t.TempDir() + "/nbsignatures.db"
	nb := richNotebook()

	store, err := OpenSQLiteStore(dsn, 0)
	require.NoError(t, err)
	require.NoError(t, NewNotary([]byte("k"), store).Sign(ctx, nb))
	require.NoError(t, store.Close())

	store, err = OpenSQLiteStore(dsn, 0)
	require.NoError(t, err)
	notary := NewNotary([]byte("k"), store)
	t.Cleanup(func() { notary.Close() })

	ok, err := notary.CheckSignature(ctx, nb)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCodecTrust(t *testing.T) {
	ctx := context.Background()
	codec := NewCodec(NewNotary([]byte("secret"), nil))

	rich := richNotebook()
	require.NoError(t, codec.Sign(ctx, rich, "/rich.ipynb"))
	codec.MarkTrusted(ctx, rich, "/rich.ipynb")
	assert.Equal(t, false, rich.Cells[0].Metadata["trusted"], "untrusted output is never signed")

	rich.Cells[0].Metadata["trusted"] = true
	require.NoError(t, codec.Sign(ctx, rich, "/rich.ipynb"))

	reloaded, err := rich.Clone()
	require.NoError(t, err)
	delete(reloaded.Cells[0].Metadata, "trusted")
	codec.MarkTrusted(ctx, reloaded, "/rich.ipynb")
	assert.Equal(t, true, reloaded.Cells[0].Metadata["trusted"])
}

func TestCodecWithoutNotary(t *testing.T) {
	codec := NewCodec(nil)
	nb := richNotebook()

	require.NoError(t, codec.Sign(context.Background(), nb, "/x.ipynb"))
	codec.MarkTrusted(context.Background(), nb, "/x.ipynb")
	assert.NotContains(t, nb.Cells[0].Metadata, "trusted")
}
