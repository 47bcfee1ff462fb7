package api

import (
	"net/http"

	"github.com/marmos91/nbcontents/pkg/contents"
)

// checkpoints serves
//
//	GET    {path}/checkpoints        list
//	POST   {path}/checkpoints        create
//	POST   {path}/checkpoints/{id}   restore
//	DELETE {path}/checkpoints/{id}   delete
func (h *Handler) checkpoints(w http.ResponseWriter, r *http.Request, p, id string) {
	ctx := r.Context()

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			list, err := h.mgr.ListCheckpoints(ctx, p)
			if err != nil {
				writeError(w, r, err)
				return
			}
			if list == nil {
				list = []*contents.CheckpointRecord{}
			}
			writeJSON(w, http.StatusOK, list)
		case http.MethodPost:
			rec, err := h.mgr.CreateCheckpoint(ctx, p)
			if err != nil {
				writeError(w, r, err)
				return
			}
			w.Header().Set("Location", location(p, "checkpoints", rec.ID))
			writeJSON(w, http.StatusCreated, rec)
		default:
			methodNotAllowed(w, "GET, POST")
		}
		return
	}

	var err error
	switch r.Method {
	case http.MethodPost:
		err = h.mgr.RestoreCheckpoint(ctx, id, p)
	case http.MethodDelete:
		err = h.mgr.DeleteCheckpoint(ctx, id, p)
	default:
		methodNotAllowed(w, "POST, DELETE")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
