package ledger

import "financeiro/internal/core"

// RollResult describes the effect of one month roll as a single reviewable
// batch.
type RollResult struct {
	ExpensesCreated int `json:"expenses_created"`
	IncomesCreated  int `json:"incomes_created"`
	DebtsAdvanced   int `json:"debts_advanced"`
}

// RollMonth advances the ledger by exactly one calendar month in one atomic
// batch:
//
//   - every fixed expense is cloned with a new id, the due date moved one
//     month forward, and status reset to pending; the original stays as-is
//   - every income is cloned with its date moved one month forward
//   - every unsettled debt's paid amount advances by one installment,
//     capped at its total; debts are mutated in place, never cloned
//
// One-off expenses are left untouched. A record whose date text does not
// parse keeps its text unchanged while the rest of the batch proceeds.
func (s *Store) RollMonth() RollResult {
	var res RollResult
	stamp := s.stamp()

	s.mu.Lock()
	spawnedExpenses := make([]core.Expense, 0, len(s.state.Expenses))
	for _, e := range s.state.Expenses {
		if !e.IsFixed {
			continue
		}
		clone := e
		clone.ID = s.newID()
		clone.DueDate = core.NextMonth(e.DueDate)
		clone.Status = core.StatusPending
		clone.CreatedAt = stamp
		spawnedExpenses = append(spawnedExpenses, clone)
	}

	spawnedIncomes := make([]core.Income, 0, len(s.state.Incomes))
	for _, in := range s.state.Incomes {
		clone := in
		clone.ID = s.newID()
		clone.Date = core.NextMonth(in.Date)
		clone.CreatedAt = stamp
		spawnedIncomes = append(spawnedIncomes, clone)
	}

	for i := range s.state.Debts {
		d := &s.state.Debts[i]
		if d.Settled() {
			continue
		}
		d.PaidAmount.Cents += d.InstallmentValue.Cents
		if d.PaidAmount.Cents > d.TotalAmount.Cents {
			d.PaidAmount = d.TotalAmount
		}
		res.DebtsAdvanced++
	}

	s.state.Expenses = append(s.state.Expenses, spawnedExpenses...)
	s.state.Incomes = append(s.state.Incomes, spawnedIncomes...)
	res.ExpensesCreated = len(spawnedExpenses)
	res.IncomesCreated = len(spawnedIncomes)

	s.queueChange()
	s.mu.Unlock()
	s.publishChanges()
	return res
}
