package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"financeiro/internal/core"
	"financeiro/internal/ledger"
)

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Snapshot()
	writeJSON(w, http.StatusOK, snap.Incomes)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var in core.Income
	if !decodeBody(w, r, &in) {
		return
	}

	created, err := s.service.CreateIncome(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type incomePatch struct {
	Name  *string     `json:"name"`
	Value *core.Money `json:"value"`
	Date  *string     `json:"date"`
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch incomePatch
	if !decodeBody(w, r, &patch) {
		return
	}

	updated, err := s.service.UpdateIncome(r.Context(), id, ledger.IncomeUpdate{
		Name:  patch.Name,
		Value: patch.Value,
		Date:  patch.Date,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	s.service.DeleteIncome(r.Context(), mux.Vars(r)["id"])
	writeJSON(w, http.StatusNoContent, nil)
}
