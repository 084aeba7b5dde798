package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/integrable/stardust/internal/logger"
	"github.com/integrable/stardust/pkg/storage"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// writeError sends a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message})
}

// writeJSON sends a JSON success response.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("failed to encode response: %v", err)
	}
}

// writeStorageError maps orchestrator error kinds onto HTTP statuses.
func writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "no file")
	case errors.Is(err, storage.ErrGroupNotFound):
		writeError(w, http.StatusNotFound, "group does not exist")
	case errors.Is(err, storage.ErrForbidden):
		writeError(w, http.StatusForbidden, "no access")
	case errors.Is(err, storage.ErrQuotaExceeded):
		writeError(w, http.StatusForbidden, "quota reached")
	case errors.Is(err, storage.ErrBadMediaType):
		writeError(w, http.StatusBadRequest, "wrong media-type/media-type not supported")
	case errors.Is(err, storage.ErrBadPermissionSpec):
		writeError(w, http.StatusBadRequest, "wrong permissions format")
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, "the group exists")
	default:
		logger.Error("internal storage error: %v", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
	}
}
