package contents

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryJSONAbsentFieldsAreNull(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := &Entry{
		Name:         "docs",
		Path:         "/docs",
		Kind:         KindDirectory,
		Writable:     true,
		Created:      ts,
		LastModified: ts,
	}

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "directory", raw["type"])
	assert.Equal(t, "2024-03-01T12:00:00Z", raw["last_modified"])
	for _, key := range []string{"size", "mimetype", "format", "content"} {
		v, ok := raw[key]
		assert.True(t, ok, "%s is present", key)
		assert.Nil(t, v, "%s is null", key)
	}
	assert.NotContains(t, raw, "message")
}

func TestEntryJSONWithContent(t *testing.T) {
	size := int64(5)
	e := &Entry{
		Name:     "a.txt",
		Path:     "/a.txt",
		Kind:     KindFile,
		Size:     &size,
		MimeType: "text/plain",
		Format:   FormatText,
		Content:  "hello",
	}

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"format":"text"`)
	assert.Contains(t, string(data), `"mimetype":"text/plain"`)
	assert.Contains(t, string(data), `"size":5`)

	var back Entry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, KindFile, back.Kind)
	assert.Equal(t, FormatText, back.Format)
	assert.Equal(t, "hello", back.Content)
}

func TestEntryUnmarshalNotebookContentStaysRaw(t *testing.T) {
	body := `{"type":"notebook","format":"json","content":{"cells":[],"metadata":{},"nbformat":4,"nbformat_minor":5}}`

	var e Entry
	require.NoError(t, json.Unmarshal([]byte(body), &e))
	assert.Equal(t, KindNotebook, e.Kind)
	assert.IsType(t, json.RawMessage{}, e.Content)
}

func TestEntryUnmarshalRejectsUnknownType(t *testing.T) {
	var e Entry
	assert.Error(t, json.Unmarshal([]byte(`{"type":"symlink"}`), &e))
}

func TestParseKindAndFormat(t *testing.T) {
	for _, k := range []Kind{KindFile, KindDirectory, KindNotebook} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	for _, f := range []Format{FormatText, FormatBase64, FormatJSON} {
		parsed, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}

	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindUnspecified, k)

	_, err = ParseFormat("yaml")
	assertCode(t, ErrBadFormat, err)
}
