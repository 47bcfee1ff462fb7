package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/marmos91/nbcontents/internal/ratelimiter"
	"github.com/marmos91/nbcontents/pkg/contents"
)

// Handler holds the API route handlers.
type Handler struct {
	mgr     *contents.Manager
	version string
	started time.Time
	limiter *ratelimiter.KeyedLimiter
}

// routePath extracts the entry path from the URL (everything after
// /api/contents/) in canonical form.
//
// chi routes on r.URL.RawPath when it is set (the client escaped something
// the default encoding would not, such as a slash), and the parameter is
// then still escaped. Otherwise it was taken from the decoded r.URL.Path
// and must not be unescaped again.
func routePath(r *http.Request) string {
	p := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(p); err == nil {
			p = decoded
		}
	}
	return "/" + strings.Trim(p, "/")
}

// splitCheckpoint recognizes {path}/checkpoints and {path}/checkpoints/{id}.
func splitCheckpoint(p string) (entry, id string, ok bool) {
	if p == "/checkpoints" || strings.HasSuffix(p, "/checkpoints") {
		return strings.TrimSuffix(p, "/checkpoints"), "", true
	}
	dir, last := path.Split(p)
	if last != "" && strings.HasSuffix(dir, "/checkpoints/") {
		return strings.TrimSuffix(dir, "/checkpoints/"), last, true
	}
	return p, "", false
}

// location is the URL of the entry at canonical path p.
func location(p string, suffix ...string) string {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	loc := strings.TrimSuffix("/api/contents/"+strings.Join(segs, "/"), "/")
	for _, s := range suffix {
		loc += "/" + url.PathEscape(s)
	}
	return loc
}

// Status handles GET /api/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"version": h.version,
		"started": h.started,
	}
	if h.limiter != nil {
		body["clients"] = h.limiter.Len()
	}
	writeJSON(w, http.StatusOK, body)
}

// Contents handles every method on /api/contents/*, including the
// checkpoint sub-resources.
func (h *Handler) Contents(w http.ResponseWriter, r *http.Request) {
	p := routePath(r)
	if entry, id, ok := splitCheckpoint(p); ok {
		h.checkpoints(w, r, entry, id)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.get(w, r, p)
	case http.MethodPut:
		h.put(w, r, p)
	case http.MethodPost:
		h.post(w, r, p)
	case http.MethodPatch:
		h.patch(w, r, p)
	case http.MethodDelete:
		h.delete(w, r, p)
	default:
		methodNotAllowed(w, "GET, HEAD, PUT, POST, PATCH, DELETE")
	}
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeJSON(w, http.StatusMethodNotAllowed, errResponse{Message: "method not allowed", Reason: "method not allowed"})
}

// get handles GET /api/contents/{path}?type=&format=&content=.
func (h *Handler) get(w http.ResponseWriter, r *http.Request, p string) {
	q := r.URL.Query()

	kind, err := contents.ParseKind(q.Get("type"))
	if err != nil {
		badRequest(w, "Type "+q.Get("type")+" is invalid")
		return
	}
	format, err := contents.ParseFormat(q.Get("format"))
	if err != nil {
		badRequest(w, "Format "+q.Get("format")+" is invalid")
		return
	}

	content := true
	switch q.Get("content") {
	case "", "1":
	case "0":
		content = false
	default:
		badRequest(w, "Content "+q.Get("content")+" is invalid")
		return
	}

	e, err := h.mgr.Get(r.Context(), p, contents.GetOptions{Content: content, Kind: kind, Format: format})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWire(e))
}

// put handles PUT /api/contents/{path}. A body saves the model; no body
// creates an empty entry.
func (h *Handler) put(w http.ResponseWriter, r *http.Request, p string) {
	var raw json.RawMessage
	if err := decodeBody(w, r, &raw); err != nil {
		badRequest(w, "Invalid JSON body: "+err.Error())
		return
	}

	ctx := r.Context()
	existed, err := h.exists(r, p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var e *contents.Entry
	if len(raw) == 0 {
		e, err = h.mgr.NewEntry(ctx, nil, p)
	} else {
		var copyReq struct {
			CopyFrom string `json:"copy_from"`
		}
		if err := json.Unmarshal(raw, &copyReq); err != nil {
			badRequest(w, "Invalid model: "+err.Error())
			return
		}
		if copyReq.CopyFrom != "" {
			badRequest(w, "Cannot copy with PUT, only POST")
			return
		}

		var model contents.Entry
		if err := json.Unmarshal(raw, &model); err != nil {
			badRequest(w, "Invalid model: "+err.Error())
			return
		}
		e, err = h.mgr.Save(ctx, &model, p)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if !existed {
		status = http.StatusCreated
	}
	w.Header().Set("Location", location(p))
	writeJSON(w, status, toWire(e))
}

func (h *Handler) exists(r *http.Request, p string) (bool, error) {
	ok, err := h.mgr.FileExists(r.Context(), p)
	if err != nil || ok {
		return ok, err
	}
	return h.mgr.DirExists(r.Context(), p)
}

type postRequest struct {
	CopyFrom string `json:"copy_from"`
	Type     string `json:"type"`
	Ext      string `json:"ext"`
}

// post handles POST /api/contents/{dir}: copy a file into dir, or create
// an untitled entry there.
func (h *Handler) post(w http.ResponseWriter, r *http.Request, dir string) {
	var req postRequest
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "Invalid JSON body: "+err.Error())
		return
	}

	ctx := r.Context()
	isFile, err := h.mgr.FileExists(ctx, dir)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if isFile {
		badRequest(w, "Cannot POST to files, use PUT instead.")
		return
	}

	var e *contents.Entry
	if req.CopyFrom != "" {
		e, err = h.mgr.Copy(ctx, req.CopyFrom, dir)
	} else {
		kind, perr := contents.ParseKind(req.Type)
		if perr != nil {
			badRequest(w, "Type "+req.Type+" is invalid")
			return
		}
		e, err = h.mgr.NewUntitled(ctx, dir, kind, req.Ext)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", location(e.Path))
	writeJSON(w, http.StatusCreated, toWire(e))
}

// patch handles PATCH /api/contents/{path} with body {"path": new}.
func (h *Handler) patch(w http.ResponseWriter, r *http.Request, p string) {
	var req struct {
		Path *string `json:"path"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	if req.Path == nil {
		badRequest(w, "JSON body missing path")
		return
	}

	ctx := r.Context()
	if err := h.mgr.Rename(ctx, p, *req.Path); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.mgr.Get(ctx, *req.Path, contents.GetOptions{})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", location(e.Path))
	writeJSON(w, http.StatusOK, toWire(e))
}

// delete handles DELETE /api/contents/{path}.
func (h *Handler) delete(w http.ResponseWriter, r *http.Request, p string) {
	if err := h.mgr.Delete(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
