package notebook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNotebook = `{
 "cells": [
  {
   "cell_type": "markdown",
   "metadata": {},
   "source": ["# Title\n", "Some <b>text</b>"]
  },
  {
   "cell_type": "code",
   "execution_count": 1,
   "id": "abc-1",
   "metadata": {"collapsed": false},
   "outputs": [{"output_type": "stream", "name": "stdout", "text": ["hi\n"]}],
   "source": "print('hi')\nx = 1\n"
  }
 ],
 "metadata": {"kernelspec": {"name": "python3"}},
 "nbformat": 4,
 "nbformat_minor": 5
}`

func TestParse(t *testing.T) {
	nb, err := Parse(sampleNotebook)
	require.NoError(t, err)

	require.Len(t, nb.Cells, 2)
	assert.Equal(t, CellMarkdown, nb.Cells[0].CellType)
	assert.Equal(t, "# Title\nSome <b>text</b>", nb.Cells[0].Source)

	code := nb.Cells[1]
	assert.Equal(t, "abc-1", code.ID)
	assert.Equal(t, "print('hi')\nx = 1\n", code.Source)
	require.NotNil(t, code.ExecutionCount)
	assert.Equal(t, 1, *code.ExecutionCount)
	require.Len(t, code.Outputs, 1)
	assert.Equal(t, "stream", code.Outputs[0]["output_type"])
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("not json")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Parse(`{"cells": [], "metadata": {}, "nbformat": 3, "nbformat_minor": 0}`)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Parse(`{"cells": [null], "metadata": {}, "nbformat": 4, "nbformat_minor": 0}`)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSerializeNew(t *testing.T) {
	text, err := Serialize(New())
	require.NoError(t, err)

	assert.Equal(t, "{\n \"cells\": [],\n \"metadata\": {},\n \"nbformat\": 4,\n \"nbformat_minor\": 5\n}\n", text)
}

func TestSerializeCells(t *testing.T) {
	nb := New()
	nb.Cells = append(nb.Cells, NewCodeCell("a = 1\nb = 2"), NewMarkdownCell("<i>x</i>"))

	text, err := Serialize(nb)
	require.NoError(t, err)
	assert.Contains(t, text, "<i>x</i>", "HTML is not escaped")

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &raw))
	cells := raw["cells"].([]any)

	code := cells[0].(map[string]any)
	assert.Equal(t, []any{"a = 1\n", "b = 2"}, code["source"])
	assert.Equal(t, []any{}, code["outputs"])
	assert.Contains(t, code, "execution_count")
	assert.Nil(t, code["execution_count"])

	md := cells[1].(map[string]any)
	assert.NotContains(t, md, "outputs")
	assert.NotContains(t, md, "execution_count")
}

func TestRoundTrip(t *testing.T) {
	nb, err := Parse(sampleNotebook)
	require.NoError(t, err)

	text, err := Serialize(nb)
	require.NoError(t, err)

	again, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, nb, again)
}

func TestFromValue(t *testing.T) {
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(sampleNotebook), &decoded))

	nb, err := FromValue(decoded)
	require.NoError(t, err)
	assert.Len(t, nb.Cells, 2)

	nb, err = FromValue(json.RawMessage(sampleNotebook))
	require.NoError(t, err)
	assert.Len(t, nb.Cells, 2)

	orig := New()
	same, err := FromValue(orig)
	require.NoError(t, err)
	assert.Same(t, orig, same)

	_, err = FromValue(nil)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = FromValue(42)
	assert.ErrorIs(t, err, ErrMalformed)
}
