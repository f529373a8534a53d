package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"financeiro/internal/core"
	"financeiro/internal/ledger"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Snapshot()
	writeJSON(w, http.StatusOK, snap.Expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if !decodeBody(w, r, &e) {
		return
	}

	created, err := s.service.CreateExpense(r.Context(), e)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// expensePatch is the wire shape of a partial expense update; absent keys
// leave the stored field untouched.
type expensePatch struct {
	Name     *string      `json:"name"`
	Category *string      `json:"category"`
	Value    *core.Money  `json:"value"`
	DueDate  *string      `json:"due_date"`
	Status   *core.Status `json:"status"`
	IsFixed  *bool        `json:"is_fixed"`
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch expensePatch
	if !decodeBody(w, r, &patch) {
		return
	}

	updated, err := s.service.UpdateExpense(r.Context(), id, ledger.ExpenseUpdate{
		Name:     patch.Name,
		Category: patch.Category,
		Value:    patch.Value,
		DueDate:  patch.DueDate,
		Status:   patch.Status,
		IsFixed:  patch.IsFixed,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.service.DeleteExpense(r.Context(), mux.Vars(r)["id"])
	writeJSON(w, http.StatusNoContent, nil)
}
