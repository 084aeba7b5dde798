package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/integrable/stardust/pkg/identity"
	"github.com/integrable/stardust/pkg/permission"
	"github.com/integrable/stardust/pkg/storage"
)

// handler carries the dependencies shared by all storage route handlers.
type handler struct {
	store          *storage.Orchestrator
	maxUploadBytes int64
}

// uploadFile handles POST /api/v1/storage/file.
//
// The request is multipart form data with a required "file" part holding
// the content, a required "filename" field, and optional "description",
// "group", "permission" and "mediatype" fields.
func (h *handler) uploadFile(w http.ResponseWriter, r *http.Request, caller identity.Identity) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	part, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file part required")
		return
	}
	defer part.Close()

	content, err := io.ReadAll(part)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file content")
		return
	}

	filename := r.FormValue("filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "filename is required")
		return
	}

	req := storage.UploadRequest{
		Content:     content,
		Filename:    filename,
		Description: r.FormValue("description"),
		GroupID:     r.FormValue("group"),
		MediaType:   r.FormValue("mediatype"),
	}

	if raw := r.FormValue("permission"); raw != "" {
		spec, parseErr := permission.Parse(raw)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "wrong permissions format")
			return
		}
		req.Permission = &spec
	}

	record, err := h.store.Upload(r.Context(), caller, req)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// downloadFile handles GET /api/v1/storage/file/{id}.
//
// The response body is the stored content, served with the record's media
// type and an attachment disposition carrying the stored filename.
func (h *handler) downloadFile(w http.ResponseWriter, r *http.Request, caller identity.Identity) {
	id := r.PathValue("id")

	record, content, err := h.store.GetFile(r.Context(), caller, id)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	w.Header().Set("Content-Type", record.MediaType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": record.Filename}))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", record.Size))
	_, _ = w.Write(content)
}

// getFileDescription handles GET /api/v1/storage/file/{id}/description.
func (h *handler) getFileDescription(w http.ResponseWriter, r *http.Request, caller identity.Identity) {
	record, err := h.store.GetFileRecord(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		writeStorageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// updateFile handles PUT /api/v1/storage/file/{id}.
//
// Accepts the same fields as upload, all optional; a "file" part replaces
// the stored content. Absent fields leave the stored values untouched.
func (h *handler) updateFile(w http.ResponseWriter, r *http.Request, caller identity.Identity) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var content []byte
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart request")
			return
		}

		part, _, err := r.FormFile("file")
		switch {
		case err == nil:
			defer part.Close()
			content, err = io.ReadAll(part)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to read file content")
				return
			}
		case errors.Is(err, http.ErrMissingFile):
			// Metadata-only update.
		default:
			writeError(w, http.StatusBadRequest, "invalid file part")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request parameters")
			return
		}
	}

	req, ok := collectUpdateFields(w, r)
	if !ok {
		return
	}
	req.Content = content

	record, err := h.store.Update(r.Context(), caller, r.PathValue("id"), req)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// updateFileDescription handles PUT /api/v1/storage/file/{id}/description.
//
// Metadata-only variant of updateFile; the stored content is never
// touched.
func (h *handler) updateFileDescription(w http.ResponseWriter, r *http.Request, caller identity.Identity) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request parameters")
		return
	}

	req, ok := collectUpdateFields(w, r)
	if !ok {
		return
	}

	record, err := h.store.Update(r.Context(), caller, r.PathValue("id"), req)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// deleteFile handles DELETE /api/v1/storage/file/{id}.
func (h *handler) deleteFile(w http.ResponseWriter, r *http.Request, caller identity.Identity) {
	if err := h.store.Delete(r.Context(), caller, r.PathValue("id")); err != nil {
		writeStorageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// collectUpdateFields reads the optional update fields from the parsed
// form, preserving the present/absent distinction. On a malformed
// permission field it writes the error response and reports false.
func collectUpdateFields(w http.ResponseWriter, r *http.Request) (storage.UpdateRequest, bool) {
	var req storage.UpdateRequest

	if values, ok := r.Form["filename"]; ok {
		req.Filename = &values[0]
	}
	if values, ok := r.Form["description"]; ok {
		req.Description = &values[0]
	}
	if values, ok := r.Form["group"]; ok {
		req.GroupID = &values[0]
	}
	if values, ok := r.Form["mediatype"]; ok {
		req.MediaType = &values[0]
	}
	if values, ok := r.Form["permission"]; ok {
		spec, err := permission.Parse(values[0])
		if err != nil {
			writeError(w, http.StatusBadRequest, "wrong permissions format")
			return storage.UpdateRequest{}, false
		}
		req.Permission = &spec
	}

	return req, true
}
