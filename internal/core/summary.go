package core

// Summary is the derived budget overview. It holds no state of its own and
// is recomputed from the snapshot on every read.
type Summary struct {
	TotalIncome     Money `json:"total_income"`
	TotalExpenses   Money `json:"total_expenses"`
	TotalDebt       Money `json:"total_debt"`
	TotalCommitted  Money `json:"total_committed"`
	AvailableSalary Money `json:"available_salary"`
}

// ComputeSummary derives the budget totals from a snapshot:
//
//	total_income     = sum of income values
//	total_expenses   = sum of expense values
//	total_debt       = sum of outstanding debt balances (never negative)
//	total_committed  = total_expenses + sum of debt installments
//	available_salary = total_income - total_committed
//
// Pure function: no I/O, deterministic, and two calls over the same snapshot
// yield identical results.
func ComputeSummary(s Snapshot) Summary {
	var sum Summary
	for _, inc := range s.Incomes {
		sum.TotalIncome.Cents += inc.Value.Cents
	}
	for _, e := range s.Expenses {
		sum.TotalExpenses.Cents += e.Value.Cents
	}
	var installments int64
	for _, d := range s.Debts {
		sum.TotalDebt.Cents += d.Remaining().Cents
		installments += d.InstallmentValue.Cents
	}
	sum.TotalCommitted.Cents = sum.TotalExpenses.Cents + installments
	sum.AvailableSalary.Cents = sum.TotalIncome.Cents - sum.TotalCommitted.Cents
	return sum
}
