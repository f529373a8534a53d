package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"financeiro/internal/cloud"
	"financeiro/internal/codec"
	"financeiro/internal/core"
	"financeiro/internal/ledger"
	"financeiro/internal/persist"
	"financeiro/internal/storage/memory"
)

type stubMirror struct {
	pushed []core.Snapshot
	pullSnap   core.Snapshot
	pullErr    error
}

func (m *stubMirror) Push(_ context.Context, _ string, snap core.Snapshot) error {
	m.pushed = append(m.pushed, snap)
	return nil
}

func (m *stubMirror) Pull(_ context.Context, _ string) (core.Snapshot, error) {
	return m.pullSnap, m.pullErr
}

func newTestService(t *testing.T, mirror persist.Mirror) *FinanceService {
	t.Helper()
	if mirror == nil {
		mirror = &stubMirror{}
	}
	gateway := persist.NewGateway(memory.New(), codec.New("test"), mirror, time.Hour)
	store := ledger.New(ledger.WithChangeFunc(gateway.HandleChange))
	svc := NewFinanceService(store, gateway)
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateExpense(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	created, err := svc.CreateExpense(ctx, core.Expense{Name: "Rent", Value: core.Money{Cents: 120000}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Error("created expense has no id")
	}

	snap := svc.Snapshot()
	if len(snap.Expenses) != 1 || snap.Expenses[0].Name != "Rent" {
		t.Errorf("snapshot = %+v", snap.Expenses)
	}
}

func TestCreateExpenseRejectsEmptyName(t *testing.T) {
	svc := newTestService(t, nil)
	if _, err := svc.CreateExpense(context.Background(), core.Expense{}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("err = %v, want ErrEmptyName", err)
	}
}

func TestSummaryReflectsLedger(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	svc.CreateIncome(ctx, core.Income{Name: "Salary", Value: core.Money{Cents: 500000}})
	svc.CreateExpense(ctx, core.Expense{Name: "Rent", Value: core.Money{Cents: 120000}})

	sum := svc.Summary()
	if sum.TotalIncome.Cents != 500000 {
		t.Errorf("total income = %d", sum.TotalIncome.Cents)
	}
	if sum.AvailableSalary.Cents != 380000 {
		t.Errorf("available = %d", sum.AvailableSalary.Cents)
	}
}

func TestPayInstallment(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	debt, err := svc.CreateDebt(ctx, core.Debt{
		Name:             "Car",
		TotalAmount:      core.Money{Cents: 100000},
		InstallmentValue: core.Money{Cents: 40000},
	})
	if err != nil {
		t.Fatalf("create debt: %v", err)
	}

	paid, err := svc.PayInstallment(ctx, debt.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.PaidAmount.Cents != 40000 {
		t.Errorf("paid = %d", paid.PaidAmount.Cents)
	}

	if _, err := svc.PayInstallment(ctx, "missing"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRollMonth(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	svc.CreateExpense(ctx, core.Expense{Name: "Rent", Value: core.Money{Cents: 120000}, DueDate: "05/03/2024", IsFixed: true})
	svc.CreateIncome(ctx, core.Income{Name: "Salary", Value: core.Money{Cents: 500000}})

	result := svc.RollMonth(ctx)
	if result.ExpensesCreated != 1 || result.IncomesCreated != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestExportFilename(t *testing.T) {
	svc := newTestService(t, nil)
	svc.CreateExpense(context.Background(), core.Expense{Name: "Rent", Value: core.Money{Cents: 1}})

	data, filename, err := svc.Export(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filename != "backup_financeiro_2024-03-15.json" {
		t.Errorf("filename = %q", filename)
	}
	if !strings.Contains(string(data), "Rent") {
		t.Error("export body missing expense")
	}
}

func TestImportReplacesLedger(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	svc.CreateExpense(ctx, core.Expense{Name: "Old", Value: core.Money{Cents: 1}})

	raw := []byte(`{"expenses": [{"id": "e9", "name": "New", "value": 10}], "debts": [], "incomes": []}`)
	snap, err := svc.Import(ctx, raw)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(snap.Expenses) != 1 || snap.Expenses[0].Name != "New" {
		t.Errorf("snapshot = %+v", snap.Expenses)
	}
}

func TestImportRejectsPayloadWithoutExpenses(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	svc.CreateExpense(ctx, core.Expense{Name: "Keep", Value: core.Money{Cents: 1}})

	if _, err := svc.Import(ctx, []byte(`{"foo": 1}`)); err == nil {
		t.Fatal("expected error for payload without expenses")
	}
	if snap := svc.Snapshot(); len(snap.Expenses) != 1 || snap.Expenses[0].Name != "Keep" {
		t.Error("failed import must not touch the ledger")
	}
}

func TestConfigureCloudSync(t *testing.T) {
	mirror := &stubMirror{pullSnap: core.Snapshot{Expenses: []core.Expense{{ID: "r1", Name: "Remote"}}}}
	svc := newTestService(t, mirror)
	ctx := context.Background()

	snap, err := svc.ConfigureCloudSync(ctx, "https://sheet.example/exec")
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if len(snap.Expenses) != 1 || snap.Expenses[0].Name != "Remote" {
		t.Errorf("snapshot = %+v", snap.Expenses)
	}
	if svc.CloudSyncURL() != "https://sheet.example/exec" {
		t.Errorf("url = %q", svc.CloudSyncURL())
	}
}

func TestConfigureCloudSyncInvalidURLKeepsLedger(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	svc.CreateExpense(ctx, core.Expense{Name: "Keep", Value: core.Money{Cents: 1}})

	snap, err := svc.ConfigureCloudSync(ctx, "ftp://x")
	if !errors.Is(err, cloud.ErrInvalidSyncURL) {
		t.Fatalf("err = %v, want ErrInvalidSyncURL", err)
	}
	if len(snap.Expenses) != 1 || snap.Expenses[0].Name != "Keep" {
		t.Error("invalid url must not touch the ledger")
	}
}

func TestForceSyncWithoutURL(t *testing.T) {
	svc := newTestService(t, nil)
	if err := svc.ForceSync(context.Background()); err == nil {
		t.Fatal("expected error when sync is not configured")
	}
}

func TestLoadFromCloud(t *testing.T) {
	mirror := &stubMirror{pullSnap: core.Snapshot{Expenses: []core.Expense{{ID: "r1", Name: "Remote"}}}}
	svc := newTestService(t, mirror)
	ctx := context.Background()

	if _, err := svc.ConfigureCloudSync(ctx, "https://sheet.example/exec"); err != nil {
		t.Fatalf("configure: %v", err)
	}

	mirror.pullSnap = core.Snapshot{Expenses: []core.Expense{{ID: "r2", Name: "Fresh"}}}
	snap, err := svc.LoadFromCloud(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Expenses[0].Name != "Fresh" {
		t.Errorf("snapshot = %+v", snap.Expenses)
	}
}

func TestShowPetPreference(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	if !svc.ShowPet(ctx) {
		t.Error("pet should default to visible")
	}
	if err := svc.SetShowPet(ctx, false); err != nil {
		t.Fatalf("set: %v", err)
	}
	if svc.ShowPet(ctx) {
		t.Error("pet should be hidden")
	}
}
