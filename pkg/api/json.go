package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/marmos91/nbcontents/internal/logger"
	"github.com/marmos91/nbcontents/pkg/contents"
)

// maxBodyBytes bounds request bodies. Notebooks with embedded images can be
// large.
const maxBodyBytes = 100 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("JSON encode failed: %v", err)
	}
}

// errResponse is the Jupyter error body.
type errResponse struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// writeError maps err to its status. Internal failures are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ce *contents.Error
	if !errors.As(err, &ce) {
		logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errResponse{Message: "internal error", Reason: "internal"})
		return
	}

	status := ce.Status()
	if status >= http.StatusInternalServerError {
		logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
	}
	msg := ce.Message
	if msg == "" {
		msg = ce.Error()
	}
	writeJSON(w, status, errResponse{Message: msg, Reason: ce.Reason()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errResponse{Message: msg, Reason: "bad request"})
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v
// untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// apiPath converts a canonical path to the relative form used on the wire.
func apiPath(p string) string {
	return strings.TrimPrefix(p, "/")
}

// toWire rewrites the paths of e, and of its children, to wire form.
func toWire(e *contents.Entry) *contents.Entry {
	e.Path = apiPath(e.Path)
	if children, ok := e.Content.([]*contents.Entry); ok {
		for _, c := range children {
			c.Path = apiPath(c.Path)
		}
	}
	return e
}
