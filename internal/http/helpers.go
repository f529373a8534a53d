package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"financeiro/internal/cloud"
	"financeiro/internal/core"
	"financeiro/internal/ledger"
)

// maxBodyBytes bounds request bodies; backups are the largest payload.
const maxBodyBytes = 16 << 20

type errorPayload struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Error: msg})
}

// writeDomainError maps known domain errors onto HTTP statuses; anything
// unrecognized is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrDebtSettled),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, cloud.ErrInvalidSyncURL):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody parses a JSON request body into v with a size cap.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// readBody drains the request body with the shared size cap.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	return body, true
}
