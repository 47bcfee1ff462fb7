package contents

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/vpath"
	"github.com/stretchr/testify/assert"
)

func TestErrorCodeStatus(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrReadOnly, http.StatusConflict},
		{ErrInvalidTarget, http.StatusConflict},
		{ErrBadFormat, http.StatusBadRequest},
		{ErrMissingType, http.StatusBadRequest},
		{ErrNotUTF8, http.StatusBadRequest},
		{ErrEncoding, http.StatusBadRequest},
		{ErrMalformedDocument, http.StatusBadRequest},
		{ErrInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.code.Status())
			assert.Equal(t, tt.status, (&Error{Code: tt.code}).Status())
		})
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"escape", vpath.ErrPathEscape, ErrNotFound},
		{"not found", fmt.Errorf("stat /a: %w", backend.ErrNotFound), ErrNotFound},
		{"parent is a file", backend.ErrNotDirectory, ErrNotFound},
		{"exists", backend.ErrExists, ErrConflict},
		{"not empty", backend.ErrNotEmpty, ErrConflict},
		{"is a directory", backend.ErrIsDirectory, ErrConflict},
		{"read only", backend.ErrReadOnly, ErrReadOnly},
		{"anything else", errors.New("disk on fire"), ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translate(tt.err, "/a")
			assert.Equal(t, tt.code, CodeOf(err))
			assert.ErrorIs(t, err, tt.err)

			var ce *Error
			assert.ErrorAs(t, err, &ce)
			assert.Equal(t, "/a", ce.Path)
		})
	}

	assert.NoError(t, translate(nil, "/a"))
}

func TestTranslateKeepsContentsErrors(t *testing.T) {
	orig := newError(ErrMissingType, "", "No file type provided")
	err := translate(orig, "/x")
	assert.Same(t, orig, err)
	assert.Equal(t, "/x", orig.Path)
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsNotFound(newError(ErrNotFound, "/a", "gone")))
	assert.False(t, IsNotFound(nil))
	assert.True(t, IsConflict(fmt.Errorf("wrapped: %w", newError(ErrConflict, "/a", "taken"))))
	assert.Equal(t, ErrInternal, CodeOf(errors.New("plain")))

	err := &Error{Code: ErrInternal, Message: "Unexpected error on /a", Err: errors.New("boom")}
	assert.Equal(t, "Unexpected error on /a: boom", err.Error())
	assert.Equal(t, "internal", err.Reason())
}
