package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"financeiro/internal/core"
	"financeiro/internal/ledger"
)

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Snapshot()
	writeJSON(w, http.StatusOK, snap.Debts)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var d core.Debt
	if !decodeBody(w, r, &d) {
		return
	}

	created, err := s.service.CreateDebt(r.Context(), d)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type debtPatch struct {
	Name             *string     `json:"name"`
	DueDate          *string     `json:"due_date"`
	TotalAmount      *core.Money `json:"total_amount"`
	PaidAmount       *core.Money `json:"paid_amount"`
	InstallmentValue *core.Money `json:"installment_value"`
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch debtPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	updated, err := s.service.UpdateDebt(r.Context(), id, ledger.DebtUpdate{
		Name:             patch.Name,
		DueDate:          patch.DueDate,
		TotalAmount:      patch.TotalAmount,
		PaidAmount:       patch.PaidAmount,
		InstallmentValue: patch.InstallmentValue,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	s.service.DeleteDebt(r.Context(), mux.Vars(r)["id"])
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handlePayInstallment(w http.ResponseWriter, r *http.Request) {
	paid, err := s.service.PayInstallment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paid)
}
