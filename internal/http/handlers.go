package http

import (
	"errors"
	"net/http"
	"time"

	"financeiro/internal/cloud"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Summary())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Snapshot())
}

func (s *Server) handleRollMonth(w http.ResponseWriter, r *http.Request) {
	result := s.service.RollMonth(r.Context())
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.service.Export(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	snap, err := s.service.Import(r.Context(), raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleForceSync(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ForceSync(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

func (s *Server) handlePullFromCloud(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.LoadFromCloud(r.Context())
	if err != nil {
		if errors.Is(err, cloud.ErrNoRemoteData) {
			writeError(w, http.StatusNotFound, "remote carries no ledger data")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type settingsPayload struct {
	CloudURL *string `json:"cloud_url,omitempty"`
	ShowPet  *bool   `json:"show_pet,omitempty"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	url := s.service.CloudSyncURL()
	pet := s.service.ShowPet(r.Context())
	writeJSON(w, http.StatusOK, settingsPayload{CloudURL: &url, ShowPet: &pet})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var payload settingsPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	// Reject a bad URL before anything is applied, so a payload carrying
	// both fields is never half-applied.
	if payload.CloudURL != nil && *payload.CloudURL != "" && !cloud.ValidateSyncURL(*payload.CloudURL) {
		writeError(w, http.StatusBadRequest, cloud.ErrInvalidSyncURL.Error())
		return
	}

	if payload.ShowPet != nil {
		if err := s.service.SetShowPet(r.Context(), *payload.ShowPet); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	if payload.CloudURL != nil {
		_, err := s.service.ConfigureCloudSync(r.Context(), *payload.CloudURL)
		switch {
		case err == nil, errors.Is(err, cloud.ErrNoRemoteData):
			// An empty remote is fine: the URL is stored, nothing to load.
		case errors.Is(err, cloud.ErrInvalidSyncURL):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		default:
			// The URL was persisted but the initial pull failed.
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
	}

	s.handleGetSettings(w, r)
}
