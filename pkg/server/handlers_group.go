package server

import (
	"net/http"
	"strconv"

	"github.com/integrable/stardust/pkg/identity"
	"github.com/integrable/stardust/pkg/permission"
	"github.com/integrable/stardust/pkg/storage"
	"github.com/integrable/stardust/pkg/store/meta"
)

// groupResponse is a group record together with its member file ids.
type groupResponse struct {
	*meta.GroupRecord
	Files []string `json:"files"`
}

// getGroup handles GET /api/v1/storage/group/{groupId}.
func (h *handler) getGroup(w http.ResponseWriter, r *http.Request, caller identity.Identity) {
	info, err := h.store.GetGroup(r.Context(), caller, r.PathValue("groupId"))
	if err != nil {
		writeStorageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, groupResponse{GroupRecord: info.Record, Files: info.FileIDs})
}

// createGroup handles POST /api/v1/storage/group/{groupId}.
//
// Optional form or query fields: "description", "owner", "permission"
// and "quota" (bytes; absent means unlimited).
func (h *handler) createGroup(w http.ResponseWriter, r *http.Request, caller identity.Identity) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request parameters")
		return
	}

	req := storage.CreateGroupRequest{
		ID:          r.PathValue("groupId"),
		Description: r.FormValue("description"),
		Owner:       r.FormValue("owner"),
	}

	if raw := r.FormValue("quota"); raw != "" {
		quota, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || quota < 0 {
			writeError(w, http.StatusBadRequest, "invalid quota")
			return
		}
		req.Quota = &quota
	}

	if raw := r.FormValue("permission"); raw != "" {
		spec, err := permission.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "wrong permissions format")
			return
		}
		req.Permission = &spec
	}

	record, err := h.store.CreateGroup(r.Context(), caller, req)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// deleteGroup handles DELETE /api/v1/storage/group/{groupId}.
//
// Deletes the group and all of its member files. The cascade is
// resumable: a failed attempt leaves the group and remaining members
// intact for a retry.
func (h *handler) deleteGroup(w http.ResponseWriter, r *http.Request, caller identity.Identity) {
	if err := h.store.DeleteGroup(r.Context(), caller, r.PathValue("groupId")); err != nil {
		writeStorageError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
