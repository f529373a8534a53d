// Package ledger owns the in-memory collections of expenses, debts, and
// incomes. The Store is the only writer; every other component either reads
// snapshots or requests mutations through its methods.
package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"financeiro/internal/core"
)

var (
	// ErrNotFound reports a mutation aimed at an id that is not in the
	// ledger.
	ErrNotFound = errors.New("record not found")

	// ErrDebtSettled reports an installment payment against a debt whose
	// balance is already fully paid.
	ErrDebtSettled = errors.New("debt already settled")
)

// ChangeFunc is invoked after every successful mutation with a deep copy of
// the new state. Deliveries arrive one at a time, in commit order, even when
// mutations run concurrently. Persistence and sync hang off this hook; the
// hook must not call back into the Store.
type ChangeFunc func(core.Snapshot)

// Store is the system of record in memory. All mutations complete
// synchronously under the lock before the method returns; side effects fire
// after the state is already visible.
type Store struct {
	mu    sync.Mutex
	state core.Snapshot

	onChange ChangeFunc
	now      func() time.Time
	newID    func() string

	// Change deliveries are queued while mu is held and drained by a
	// single goroutine, so the hook always sees snapshots in commit order.
	changeMu      sync.Mutex
	changeQueue   []core.Snapshot
	changeDrainer bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the id source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithChangeFunc registers the after-mutation hook.
func WithChangeFunc(fn ChangeFunc) Option {
	return func(s *Store) { s.onChange = fn }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// queueChange enqueues a copy of the current state for the change hook.
// Must be called with mu held: enqueue order is commit order.
func (s *Store) queueChange() {
	if s.onChange == nil {
		return
	}
	s.changeMu.Lock()
	s.changeQueue = append(s.changeQueue, s.state.Clone())
	s.changeMu.Unlock()
}

// publishChanges drains the queue into the hook. Whichever goroutine wins
// becomes the drainer and delivers everything queued so far; the rest return
// immediately. The state lock is never held here, so a slow persistence path
// never blocks readers, and the single drainer keeps deliveries in commit
// order.
func (s *Store) publishChanges() {
	if s.onChange == nil {
		return
	}
	s.changeMu.Lock()
	if s.changeDrainer {
		s.changeMu.Unlock()
		return
	}
	s.changeDrainer = true
	for len(s.changeQueue) > 0 {
		next := s.changeQueue[0]
		s.changeQueue = s.changeQueue[1:]
		s.changeMu.Unlock()
		s.onChange(next)
		s.changeMu.Lock()
	}
	s.changeDrainer = false
	s.changeMu.Unlock()
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Summary recomputes the budget totals from the current state. Never
// cached: the result is always consistent with the collections.
func (s *Store) Summary() core.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.ComputeSummary(s.state)
}

// Replace swaps the whole ledger for the given snapshot (import, cloud
// pull). The snapshot is normalized on the way in.
func (s *Store) Replace(snap core.Snapshot) {
	s.mu.Lock()
	s.state = snap.Normalize().Clone()
	s.queueChange()
	s.mu.Unlock()
	s.publishChanges()
}

// AddExpense appends a new expense with a generated id and creation
// timestamp. Status defaults to pending when unset.
func (s *Store) AddExpense(e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e = e.Normalize()
	e.ID = s.newID()
	e.CreatedAt = s.stamp()

	s.mu.Lock()
	s.state.Expenses = append(s.state.Expenses, e)
	s.queueChange()
	s.mu.Unlock()
	s.publishChanges()
	return e, nil
}

// ExpenseUpdate is a partial patch; nil fields are left untouched.
type ExpenseUpdate struct {
	Name     *string
	Category *string
	Value    *core.Money
	DueDate  *string
	Status   *core.Status
	IsFixed  *bool
}

// UpdateExpense merges the patch into the matching record.
func (s *Store) UpdateExpense(id string, upd ExpenseUpdate) (core.Expense, error) {
	s.mu.Lock()
	var updated core.Expense
	found := false
	for i := range s.state.Expenses {
		if s.state.Expenses[i].ID != id {
			continue
		}
		e := &s.state.Expenses[i]
		if upd.Name != nil {
			e.Name = *upd.Name
		}
		if upd.Category != nil {
			e.Category = *upd.Category
		}
		if upd.Value != nil {
			e.Value = *upd.Value
		}
		if upd.DueDate != nil {
			e.DueDate = *upd.DueDate
		}
		if upd.Status != nil {
			e.Status = upd.Status.Normalize()
		}
		if upd.IsFixed != nil {
			e.IsFixed = *upd.IsFixed
		}
		*e = e.Normalize()
		updated = *e
		found = true
		break
	}
	if !found {
		s.mu.Unlock()
		return core.Expense{}, ErrNotFound
	}
	s.queueChange()
	s.mu.Unlock()
	s.publishChanges()
	return updated, nil
}

// DeleteExpense removes the matching record. Deleting an absent id is a
// no-op.
func (s *Store) DeleteExpense(id string) {
	s.mu.Lock()
	kept := s.state.Expenses[:0]
	removed := false
	for _, e := range s.state.Expenses {
		if e.ID == id {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	s.state.Expenses = kept
	if !removed {
		s.mu.Unlock()
		return
	}
	s.queueChange()
	s.mu.Unlock()
	s.publishChanges()
}

// AddDebt appends a new debt. Amounts are clamped so the paid/total
// invariant holds from the first moment.
func (s *Store) AddDebt(d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	d = d.Normalize()
	d.ID = s.newID()
	d.CreatedAt = s.stamp()

	s.mu.Lock()
	s.state.Debts = append(s.state.Debts, d)
	s.queueChange()
	s.mu.Unlock()
	s.publishChanges()
	return d, nil
}

// DebtUpdate is a partial patch; nil fields are left untouched.
type DebtUpdate struct {
	Name             *string
	DueDate          *string
	TotalAmount      *core.Money
	PaidAmount       *core.Money
	InstallmentValue *core.Money
}

// UpdateDebt merges the patch into the matching record and re-normalizes so
// the paid amount stays within [0, total].
func (s *Store) UpdateDebt(id string, upd DebtUpdate) (core.Debt, error) {
	s.mu.Lock()
	var updated core.Debt
	found := false
	for i := range s.state.Debts {
		if s.state.Debts[i].ID != id {
			continue
		}
		d := &s.state.Debts[i]
		if upd.Name != nil {
			d.Name = *upd.Name
		}
		if upd.DueDate != nil {
			d.DueDate = *upd.DueDate
		}
		if upd.TotalAmount != nil {
			d.TotalAmount = *upd.TotalAmount
		}
		if upd.PaidAmount != nil {
			d.PaidAmount = *upd.PaidAmount
		}
		if upd.InstallmentValue != nil {
			d.InstallmentValue = *upd.InstallmentValue
		}
		*d = d.Normalize()
		updated = *d
		found = true
		break
	}
	if !found {
		s.mu.Unlock()
		return core.Debt{}, ErrNotFound
	}
	s.queueChange()
	s.mu.Unlock()
	s.publishChanges()
	return updated, nil
}

// DeleteDebt removes the matching record; idempotent.
func (s *Store) DeleteDebt(id string) {
	s.mu.Lock()
	kept := s.state.Debts[:0]
	removed := false
	for _, d := range s.state.Debts {
		if d.ID == id {
			removed = true
			continue
		}
		kept = append(kept, d)
	}
	s.state.Debts = kept
	if !removed {
		s.mu.Unlock()
		return
	}
	s.queueChange()
	s.mu.Unlock()
	s.publishChanges()
}

// PayInstallment advances a debt by one installment, capped at the total:
// paid = min(paid + installment, total). Paying a settled debt has no
// effect and reports ErrDebtSettled.
func (s *Store) PayInstallment(id string) (core.Debt, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.state.Debts {
		if s.state.Debts[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return core.Debt{}, ErrNotFound
	}
	d := &s.state.Debts[idx]
	if d.Settled() {
		s.mu.Unlock()
		return *d, ErrDebtSettled
	}
	d.PaidAmount.Cents += d.InstallmentValue.Cents
	if d.PaidAmount.Cents > d.TotalAmount.Cents {
		d.PaidAmount = d.TotalAmount
	}
	paid := *d
	s.queueChange()
	s.mu.Unlock()
	s.publishChanges()
	return paid, nil
}

// AddIncome appends a new income.
func (s *Store) AddIncome(in core.Income) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	in = in.Normalize()
	in.ID = s.newID()
	in.CreatedAt = s.stamp()

	s.mu.Lock()
	s.state.Incomes = append(s.state.Incomes, in)
	s.queueChange()
	s.mu.Unlock()
	s.publishChanges()
	return in, nil
}

// IncomeUpdate is a partial patch; nil fields are left untouched.
type IncomeUpdate struct {
	Name  *string
	Value *core.Money
	Date  *string
}

// UpdateIncome merges the patch into the matching record.
func (s *Store) UpdateIncome(id string, upd IncomeUpdate) (core.Income, error) {
	s.mu.Lock()
	var updated core.Income
	found := false
	for i := range s.state.Incomes {
		if s.state.Incomes[i].ID != id {
			continue
		}
		in := &s.state.Incomes[i]
		if upd.Name != nil {
			in.Name = *upd.Name
		}
		if upd.Value != nil {
			in.Value = *upd.Value
		}
		if upd.Date != nil {
			in.Date = *upd.Date
		}
		*in = in.Normalize()
		updated = *in
		found = true
		break
	}
	if !found {
		s.mu.Unlock()
		return core.Income{}, ErrNotFound
	}
	s.queueChange()
	s.mu.Unlock()
	s.publishChanges()
	return updated, nil
}

// DeleteIncome removes the matching record; idempotent.
func (s *Store) DeleteIncome(id string) {
	s.mu.Lock()
	kept := s.state.Incomes[:0]
	removed := false
	for _, in := range s.state.Incomes {
		if in.ID == id {
			removed = true
			continue
		}
		kept = append(kept, in)
	}
	s.state.Incomes = kept
	if !removed {
		s.mu.Unlock()
		return
	}
	s.queueChange()
	s.mu.Unlock()
	s.publishChanges()
}
