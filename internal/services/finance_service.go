// Package services orchestrates the ledger, the persistence gateway and the
// import/export codecs behind one surface the HTTP layer calls into.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"financeiro/internal/core"
	"financeiro/internal/ledger"
	"financeiro/internal/log"
	"financeiro/internal/persist"
	"financeiro/internal/snapshot"
)

// FinanceService exposes every ledger operation plus the sync and backup
// surfaces. Mutations go through the store, whose change hook feeds the
// gateway; the service never persists directly.
type FinanceService struct {
	store   *ledger.Store
	gateway *persist.Gateway
	now     func() time.Time
}

func NewFinanceService(store *ledger.Store, gateway *persist.Gateway) *FinanceService {
	return &FinanceService{
		store:   store,
		gateway: gateway,
		now:     time.Now,
	}
}

// Snapshot returns a deep copy of the current ledger.
func (s *FinanceService) Snapshot() core.Snapshot {
	return s.store.Snapshot()
}

// Summary recomputes the derived totals from the current ledger.
func (s *FinanceService) Summary() core.Summary {
	return s.store.Summary()
}

// Expense operations

func (s *FinanceService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	created, err := s.store.AddExpense(e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense created",
		log.FieldComponent, log.ComponentLedger,
		log.FieldOperation, log.OpCreate,
		log.FieldEntryID, created.ID,
		log.FieldEntryName, created.Name,
		log.FieldAmountCents, created.Value.Cents)
	return created, nil
}

func (s *FinanceService) UpdateExpense(ctx context.Context, id string, upd ledger.ExpenseUpdate) (core.Expense, error) {
	updated, err := s.store.UpdateExpense(id, upd)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return updated, nil
}

func (s *FinanceService) DeleteExpense(ctx context.Context, id string) {
	s.store.DeleteExpense(id)
	slog.DebugContext(ctx, "Expense deleted", "id", id)
}

// Debt operations

func (s *FinanceService) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	created, err := s.store.AddDebt(d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt: %w", err)
	}
	slog.InfoContext(ctx, "Debt created",
		log.FieldComponent, log.ComponentLedger,
		log.FieldOperation, log.OpCreate,
		log.FieldEntryID, created.ID,
		log.FieldEntryName, created.Name,
		log.FieldAmountCents, created.TotalAmount.Cents)
	return created, nil
}

func (s *FinanceService) UpdateDebt(ctx context.Context, id string, upd ledger.DebtUpdate) (core.Debt, error) {
	updated, err := s.store.UpdateDebt(id, upd)
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt: %w", err)
	}
	return updated, nil
}

func (s *FinanceService) DeleteDebt(ctx context.Context, id string) {
	s.store.DeleteDebt(id)
	slog.DebugContext(ctx, "Debt deleted", "id", id)
}

// PayInstallment credits one installment against the debt.
func (s *FinanceService) PayInstallment(ctx context.Context, id string) (core.Debt, error) {
	paid, err := s.store.PayInstallment(id)
	if err != nil {
		return core.Debt{}, fmt.Errorf("pay installment: %w", err)
	}
	slog.InfoContext(ctx, "Installment paid",
		log.FieldComponent, log.ComponentLedger,
		log.FieldEntryID, paid.ID,
		"paid_cents", paid.PaidAmount.Cents,
		"remaining_cents", paid.Remaining().Cents)
	return paid, nil
}

// Income operations

func (s *FinanceService) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	created, err := s.store.AddIncome(in)
	if err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}
	slog.InfoContext(ctx, "Income created",
		log.FieldComponent, log.ComponentLedger,
		log.FieldOperation, log.OpCreate,
		log.FieldEntryID, created.ID,
		log.FieldEntryName, created.Name,
		log.FieldAmountCents, created.Value.Cents)
	return created, nil
}

func (s *FinanceService) UpdateIncome(ctx context.Context, id string, upd ledger.IncomeUpdate) (core.Income, error) {
	updated, err := s.store.UpdateIncome(id, upd)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", err)
	}
	return updated, nil
}

func (s *FinanceService) DeleteIncome(ctx context.Context, id string) {
	s.store.DeleteIncome(id)
	slog.DebugContext(ctx, "Income deleted", "id", id)
}

// RollMonth clones fixed expenses and incomes into the next month and
// advances open debts by one installment.
func (s *FinanceService) RollMonth(ctx context.Context) ledger.RollResult {
	result := s.store.RollMonth()
	slog.InfoContext(ctx, "Month rolled",
		log.FieldComponent, log.ComponentLedger,
		log.FieldOperation, log.OpRoll,
		"expenses_created", result.ExpensesCreated,
		"incomes_created", result.IncomesCreated,
		"debts_advanced", result.DebtsAdvanced)
	return result
}

// Export renders the ledger as an unencrypted backup document.
func (s *FinanceService) Export(ctx context.Context) ([]byte, string, error) {
	data, filename, err := snapshot.Export(s.store.Snapshot(), s.now())
	if err != nil {
		return nil, "", fmt.Errorf("export ledger: %w", err)
	}
	slog.InfoContext(ctx, "Ledger exported",
		log.FieldOperation, log.OpExport,
		"filename", filename,
		"bytes", len(data))
	return data, filename, nil
}

// Import replaces the whole ledger with the parsed backup document.
func (s *FinanceService) Import(ctx context.Context, raw []byte) (core.Snapshot, error) {
	snap, err := snapshot.Import(raw)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("import ledger: %w", err)
	}
	s.store.Replace(snap)
	restored := s.store.Snapshot()
	slog.InfoContext(ctx, "Ledger imported",
		log.FieldOperation, log.OpImport,
		"expenses", len(restored.Expenses),
		"debts", len(restored.Debts),
		"incomes", len(restored.Incomes))
	return restored, nil
}

// ConfigureCloudSync validates and stores the sync URL, then replaces the
// ledger with the remote copy when one exists. An unreachable or empty
// remote keeps the local ledger and reports the pull error to the caller.
func (s *FinanceService) ConfigureCloudSync(ctx context.Context, url string) (core.Snapshot, error) {
	remote, err := s.gateway.ConfigureCloudURL(ctx, url)
	if err != nil {
		return s.store.Snapshot(), err
	}
	if remote != nil {
		s.store.Replace(*remote)
	}
	slog.InfoContext(ctx, "Cloud sync configured",
		log.FieldOperation, log.OpSync,
		log.FieldSyncURL, url,
		"replaced_from_remote", remote != nil)
	return s.store.Snapshot(), nil
}

// CloudSyncURL returns the active sync URL, "" when sync is disabled.
func (s *FinanceService) CloudSyncURL() string {
	return s.gateway.CloudURL()
}

// ForceSync pushes the current ledger immediately, skipping the debounce.
func (s *FinanceService) ForceSync(ctx context.Context) error {
	return s.gateway.ForceSync(ctx, s.store.Snapshot())
}

// LoadFromCloud fetches the remote ledger and replaces the local one.
func (s *FinanceService) LoadFromCloud(ctx context.Context) (core.Snapshot, error) {
	remote, err := s.gateway.PullRemote(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load from cloud: %w", err)
	}
	s.store.Replace(remote)
	return s.store.Snapshot(), nil
}

// ShowPet reads the mascot visibility preference.
func (s *FinanceService) ShowPet(ctx context.Context) bool {
	return s.gateway.ShowPet(ctx)
}

// SetShowPet stores the mascot visibility preference.
func (s *FinanceService) SetShowPet(ctx context.Context, visible bool) error {
	return s.gateway.SetShowPet(ctx, visible)
}
