package core

import (
	"errors"
	"strings"
)

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

type (
	// Status is the payment state of an expense.
	Status string

	// Expense is a one-off or recurring obligation. Fixed expenses are
	// cloned forward by the month roll; one-off expenses stay in their
	// period.
	Expense struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Category  string `json:"category"`
		Value     Money  `json:"value"`
		DueDate   string `json:"due_date"`
		Status    Status `json:"status"`
		IsFixed   bool   `json:"is_fixed"`
		CreatedAt string `json:"created_at"`
	}

	// Debt is an installment obligation. The month roll advances
	// PaidAmount in place; debts are never cloned.
	Debt struct {
		ID               string `json:"id"`
		Name             string `json:"name"`
		DueDate          string `json:"due_date"`
		TotalAmount      Money  `json:"total_amount"`
		PaidAmount       Money  `json:"paid_amount"`
		InstallmentValue Money  `json:"installment_value"`
		CreatedAt        string `json:"created_at"`
	}

	// Income is a recurring earning; every income is cloned forward by
	// the month roll.
	Income struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Value     Money  `json:"value"`
		Date      string `json:"date"`
		CreatedAt string `json:"created_at"`
	}

	// Snapshot is the portable value form of the whole ledger. It is the
	// canonical serialization unit for local persistence, cloud sync, and
	// import/export.
	Snapshot struct {
		Expenses []Expense `json:"expenses"`
		Debts    []Debt    `json:"debts"`
		Incomes  []Income  `json:"incomes"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyName     = errors.New("empty name")
)

// Normalize clamps the status to a known value and the amount to a
// non-negative number. Unknown statuses become pending.
func (s Status) Normalize() Status {
	if s == StatusPaid {
		return StatusPaid
	}
	return StatusPending
}

// Validate checks the fields a caller must supply on creation.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if e.Value.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Normalize returns the expense with coerced fields: status collapsed to a
// known value, negative amounts clamped to zero.
func (e Expense) Normalize() Expense {
	e.Status = e.Status.Normalize()
	if e.Value.Cents < 0 {
		e.Value = Money{}
	}
	return e
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if d.TotalAmount.Cents < 0 || d.InstallmentValue.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Normalize clamps amounts so that 0 <= PaidAmount <= TotalAmount holds no
// matter what the input carried.
func (d Debt) Normalize() Debt {
	if d.TotalAmount.Cents < 0 {
		d.TotalAmount = Money{}
	}
	if d.InstallmentValue.Cents < 0 {
		d.InstallmentValue = Money{}
	}
	if d.PaidAmount.Cents < 0 {
		d.PaidAmount = Money{}
	}
	if d.PaidAmount.Cents > d.TotalAmount.Cents {
		d.PaidAmount = d.TotalAmount
	}
	return d
}

// Remaining is the outstanding balance, never negative.
func (d Debt) Remaining() Money {
	rem := d.TotalAmount.Cents - d.PaidAmount.Cents
	if rem < 0 {
		rem = 0
	}
	return Money{Cents: rem}
}

// Settled reports whether the debt is fully paid.
func (d Debt) Settled() bool {
	return d.PaidAmount.Cents >= d.TotalAmount.Cents
}

func (i Income) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if i.Value.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (i Income) Normalize() Income {
	if i.Value.Cents < 0 {
		i.Value = Money{}
	}
	return i
}

// Normalize applies per-record normalization across the whole snapshot.
// Imported and remote payloads pass through here so internal computation
// never needs defensive coercion.
func (s Snapshot) Normalize() Snapshot {
	out := Snapshot{
		Expenses: make([]Expense, len(s.Expenses)),
		Debts:    make([]Debt, len(s.Debts)),
		Incomes:  make([]Income, len(s.Incomes)),
	}
	for i, e := range s.Expenses {
		out.Expenses[i] = e.Normalize()
	}
	for i, d := range s.Debts {
		out.Debts[i] = d.Normalize()
	}
	for i, in := range s.Incomes {
		out.Incomes[i] = in.Normalize()
	}
	return out
}

// Clone returns a deep copy; the collections share no backing arrays with
// the receiver.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Expenses: make([]Expense, len(s.Expenses)),
		Debts:    make([]Debt, len(s.Debts)),
		Incomes:  make([]Income, len(s.Incomes)),
	}
	copy(out.Expenses, s.Expenses)
	copy(out.Debts, s.Debts)
	copy(out.Incomes, s.Incomes)
	return out
}
