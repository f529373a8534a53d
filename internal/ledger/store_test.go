package ledger

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"financeiro/internal/core"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(opts ...Option) *Store {
	base := []Option{WithClock(fixedClock()), WithIDGenerator(sequentialIDs())}
	return New(append(base, opts...)...)
}

func TestAddExpenseDefaults(t *testing.T) {
	s := newTestStore()
	e, err := s.AddExpense(core.Expense{Name: "Rent", Value: core.Money{Cents: 120000}})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.ID == "" {
		t.Error("expected generated id")
	}
	if e.Status != core.StatusPending {
		t.Errorf("status = %q, want pending default", e.Status)
	}
	if e.CreatedAt != "2025-01-15T10:00:00Z" {
		t.Errorf("created_at = %q", e.CreatedAt)
	}
	if got := len(s.Snapshot().Expenses); got != 1 {
		t.Errorf("expense count = %d, want 1", got)
	}
}

func TestAddExpenseRejectsInvalid(t *testing.T) {
	s := newTestStore()
	if _, err := s.AddExpense(core.Expense{Name: ""}); err == nil {
		t.Fatal("expected validation error")
	}
	if got := len(s.Snapshot().Expenses); got != 0 {
		t.Errorf("rejected add still mutated the ledger: %d records", got)
	}
}

func TestUpdateExpensePartial(t *testing.T) {
	s := newTestStore()
	e, _ := s.AddExpense(core.Expense{Name: "Internet", Category: "Home", Value: core.Money{Cents: 9900}})

	paid := core.StatusPaid
	upd, err := s.UpdateExpense(e.ID, ExpenseUpdate{Status: &paid})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Status != core.StatusPaid {
		t.Errorf("status = %q, want paid", upd.Status)
	}
	if upd.Name != "Internet" || upd.Category != "Home" || upd.Value.Cents != 9900 {
		t.Errorf("untouched fields changed: %+v", upd)
	}
}

func TestUpdateExpenseNotFound(t *testing.T) {
	s := newTestStore()
	if _, err := s.UpdateExpense("missing", ExpenseUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteExpenseIdempotent(t *testing.T) {
	s := newTestStore()
	e, _ := s.AddExpense(core.Expense{Name: "Gym", Value: core.Money{Cents: 5000}})
	s.DeleteExpense(e.ID)
	s.DeleteExpense(e.ID) // second delete is a no-op
	if got := len(s.Snapshot().Expenses); got != 0 {
		t.Errorf("expense count = %d, want 0", got)
	}
}

func TestPayInstallmentCap(t *testing.T) {
	s := newTestStore()
	d, _ := s.AddDebt(core.Debt{
		Name:             "Loan",
		TotalAmount:      core.Money{Cents: 100000},
		PaidAmount:       core.Money{Cents: 90000},
		InstallmentValue: core.Money{Cents: 20000},
	})

	paid, err := s.PayInstallment(d.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.PaidAmount.Cents != 100000 {
		t.Errorf("paid_amount = %d, want capped at 100000", paid.PaidAmount.Cents)
	}

	if _, err := s.PayInstallment(d.ID); !errors.Is(err, ErrDebtSettled) {
		t.Fatalf("err = %v, want ErrDebtSettled", err)
	}
}

func TestPayInstallmentInvariantHolds(t *testing.T) {
	s := newTestStore()
	d, _ := s.AddDebt(core.Debt{
		Name:             "Loan",
		TotalAmount:      core.Money{Cents: 100000},
		InstallmentValue: core.Money{Cents: 33333},
	})
	for i := 0; i < 10; i++ {
		s.PayInstallment(d.ID)
		got := s.Snapshot().Debts[0]
		if got.PaidAmount.Cents < 0 || got.PaidAmount.Cents > got.TotalAmount.Cents {
			t.Fatalf("iteration %d broke invariant: paid=%d total=%d",
				i, got.PaidAmount.Cents, got.TotalAmount.Cents)
		}
	}
}

func TestSummaryTracksMutations(t *testing.T) {
	s := newTestStore()
	s.AddIncome(core.Income{Name: "Salary", Value: core.Money{Cents: 500000}})
	s.AddExpense(core.Expense{Name: "Rent", Value: core.Money{Cents: 120000}})

	sum := s.Summary()
	if sum.AvailableSalary.Cents != 380000 {
		t.Errorf("available = %d, want 380000", sum.AvailableSalary.Cents)
	}

	s.AddExpense(core.Expense{Name: "Food", Value: core.Money{Cents: 80000}})
	sum = s.Summary()
	if sum.AvailableSalary.Cents != 300000 {
		t.Errorf("available after second expense = %d, want 300000", sum.AvailableSalary.Cents)
	}
}

func TestChangeHookFiresPerMutation(t *testing.T) {
	var calls int
	var last core.Snapshot
	s := newTestStore(WithChangeFunc(func(snap core.Snapshot) {
		calls++
		last = snap
	}))

	s.AddIncome(core.Income{Name: "Salary", Value: core.Money{Cents: 1000}})
	in, _ := s.AddIncome(core.Income{Name: "Bonus", Value: core.Money{Cents: 2000}})
	s.DeleteIncome(in.ID)

	if calls != 3 {
		t.Errorf("hook fired %d times, want 3", calls)
	}
	if len(last.Incomes) != 1 || last.Incomes[0].Name != "Salary" {
		t.Errorf("last snapshot = %+v", last.Incomes)
	}

	// A failed mutation must not fire the hook.
	s.AddExpense(core.Expense{Name: ""})
	if calls != 3 {
		t.Errorf("hook fired on rejected mutation")
	}
}

func TestChangeHookKeepsCommitOrder(t *testing.T) {
	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})

	var mu sync.Mutex
	var deliveries []int

	s := newTestStore(WithChangeFunc(func(snap core.Snapshot) {
		mu.Lock()
		n := len(deliveries)
		mu.Unlock()
		if n == 0 {
			close(firstEntered)
			<-releaseFirst
		}
		mu.Lock()
		deliveries = append(deliveries, len(snap.Expenses))
		mu.Unlock()
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.AddExpense(core.Expense{Name: "Rent", Value: core.Money{Cents: 120000}})
	}()
	<-firstEntered

	// The second mutation commits while the first delivery is still in
	// flight; its snapshot must not arrive before the first one.
	s.AddExpense(core.Expense{Name: "Water", Value: core.Money{Cents: 8000}})
	close(releaseFirst)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(deliveries) != 2 || deliveries[0] != 1 || deliveries[1] != 2 {
		t.Fatalf("delivered expense counts = %v, want [1 2]", deliveries)
	}
	if got := len(s.Snapshot().Expenses); got != 2 {
		t.Errorf("final expense count = %d, want 2", got)
	}
}

func TestReplaceNormalizes(t *testing.T) {
	s := newTestStore()
	s.Replace(core.Snapshot{
		Debts: []core.Debt{{
			ID:          "d1",
			Name:        "Over",
			TotalAmount: core.Money{Cents: 1000},
			PaidAmount:  core.Money{Cents: 9999},
		}},
		Expenses: []core.Expense{{ID: "e1", Name: "X", Status: "weird"}},
	})
	snap := s.Snapshot()
	if snap.Debts[0].PaidAmount.Cents != 1000 {
		t.Errorf("paid = %d, want clamped to 1000", snap.Debts[0].PaidAmount.Cents)
	}
	if snap.Expenses[0].Status != core.StatusPending {
		t.Errorf("status = %q, want pending", snap.Expenses[0].Status)
	}
}

func TestUpdateDebtReclamps(t *testing.T) {
	s := newTestStore()
	d, _ := s.AddDebt(core.Debt{Name: "Loan", TotalAmount: core.Money{Cents: 5000}})
	big := core.Money{Cents: 9000}
	upd, err := s.UpdateDebt(d.ID, DebtUpdate{PaidAmount: &big})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.PaidAmount.Cents != 5000 {
		t.Errorf("paid = %d, want clamped to 5000", upd.PaidAmount.Cents)
	}
}
