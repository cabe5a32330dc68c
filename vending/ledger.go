/*
ledger.go - Sale recording and machine lifecycle

PURPOSE:
  The Ledger is the single writer binding the append-only transaction log
  to the cached Machine.Revenue field. Recording a sale appends exactly
  one sale transaction and bumps exactly one machine's revenue, in that
  order.

CRITICAL INVARIANT:
  Machine.Revenue == sum of Amount over that machine's sale transactions.
  Both records change only through RecordSale (plus AdjustRevenue for
  explicit manual corrections), so drift can only come from a failed
  second write - and that failure is surfaced, never swallowed.

WRITE ORDERING:
  Within RecordSale the transaction append is issued before the revenue
  update, always. A crash between the two leaves a transaction with no
  corresponding revenue bump, never a revenue bump with no transaction.
  When the second write fails, RecordSale returns a RevenueSyncError
  carrying the created transaction id so the caller can reconcile.

VALIDATION:
  All field validation happens here, once, at the engine boundary -
  before any write reaches the store. A rejected call is a no-op.

SEE ALSO:
  - store.go: The persistence contract this engine drives
  - errors.go: ValidationError, StoreError, RevenueSyncError
*/
package vending

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger orchestrates all writes against the entity store.
type Ledger struct {
	store EntityStore
	now   func() time.Time
}

// NewLedger creates a ledger over the given store.
func NewLedger(store EntityStore) *Ledger {
	return &Ledger{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// NewLedgerAt is NewLedger with an injectable clock, for tests.
func NewLedgerAt(store EntityStore, now func() time.Time) *Ledger {
	return &Ledger{store: store, now: now}
}

// =============================================================================
// SALE RECORDING
// =============================================================================

// RecordSale appends a sale transaction and adds its amount to the
// machine's cached revenue. date may be zero, meaning today.
//
// Failure modes:
//   - amount <= 0:            ValidationError, nothing written
//   - machine absent:         ErrMachineNotFound, nothing written
//   - transaction append err: StoreError, nothing written
//   - revenue update err:     RevenueSyncError - the transaction EXISTS
//     but the machine revenue was not bumped; caller must reconcile
func (l *Ledger) RecordSale(ctx context.Context, machineID MachineID, amount decimal.Decimal, description string, date time.Time) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "sale amount must be positive"}
	}

	machine, err := l.store.GetMachine(ctx, machineID)
	if err != nil {
		return nil, &StoreError{Op: "machines.get", Cause: err}
	}
	if machine == nil {
		return nil, fmt.Errorf("record sale on %s: %w", machineID, ErrMachineNotFound)
	}

	now := l.now()
	if date.IsZero() {
		date = now
	}

	tx := Transaction{
		ID:          TransactionID(fmt.Sprintf("tx-%d", now.UnixNano())),
		MachineID:   machineID,
		Amount:      amount,
		Date:        date.Truncate(24 * time.Hour),
		Type:        TxSale,
		Description: description,
		CreatedAt:   now,
	}

	// Transaction first. The reverse order could lose money on a crash.
	if err := l.store.AppendTransaction(ctx, tx); err != nil {
		return nil, &StoreError{Op: "transactions.append", Cause: err}
	}

	machine.Revenue = machine.Revenue.Add(amount)
	if err := l.store.UpdateMachine(ctx, *machine); err != nil {
		return &tx, &RevenueSyncError{
			TransactionID: tx.ID,
			MachineID:     machineID,
			Amount:        amount,
			Cause:         err,
		}
	}

	return &tx, nil
}

// MachineTransactions returns one machine's history, newest first.
func (l *Ledger) MachineTransactions(ctx context.Context, machineID MachineID) ([]Transaction, error) {
	txs, err := l.store.ListMachineTransactions(ctx, machineID)
	if err != nil {
		return nil, &StoreError{Op: "transactions.list", Cause: err}
	}
	return txs, nil
}

// =============================================================================
// MACHINE LIFECYCLE
// =============================================================================

// CreateMachine validates and inserts a new machine. Status defaults to
// active; Revenue defaults to zero and may be seeded non-negative for
// migrated fleets.
func (l *Ledger) CreateMachine(ctx context.Context, m Machine) (*Machine, error) {
	if m.Status == "" {
		m.Status = MachineActive
	}
	if err := validateMachine(m); err != nil {
		return nil, err
	}

	now := l.now()
	m.ID = MachineID(fmt.Sprintf("machine-%d", now.UnixNano()))
	m.CreatedAt = now

	if err := l.store.CreateMachine(ctx, m); err != nil {
		return nil, &StoreError{Op: "machines.create", Cause: err}
	}
	return &m, nil
}

// UpdateMachine merges the patch into the stored machine and writes it
// back. Location, Code and Partner must be non-empty after the merge and
// Split must stay within 0-100. Revenue cannot be changed through this
// path; use AdjustRevenue for manual corrections.
func (l *Ledger) UpdateMachine(ctx context.Context, id MachineID, patch MachinePatch) (*Machine, error) {
	machine, err := l.store.GetMachine(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "machines.get", Cause: err}
	}
	if machine == nil {
		return nil, fmt.Errorf("update machine %s: %w", id, ErrMachineNotFound)
	}

	if patch.Location != nil {
		machine.Location = *patch.Location
	}
	if patch.Code != nil {
		machine.Code = *patch.Code
	}
	if patch.Partner != nil {
		machine.Partner = *patch.Partner
	}
	if patch.Split != nil {
		machine.Split = *patch.Split
	}
	if patch.Status != nil {
		machine.Status = *patch.Status
	}

	if err := validateMachine(*machine); err != nil {
		return nil, err
	}
	if err := l.store.UpdateMachine(ctx, *machine); err != nil {
		return nil, &StoreError{Op: "machines.update", Cause: err}
	}
	return machine, nil
}

// AdjustRevenue adds delta to the machine's cached revenue. This is the
// manual-correction escape hatch; sale recording never goes through it.
func (l *Ledger) AdjustRevenue(ctx context.Context, id MachineID, delta decimal.Decimal) (*Machine, error) {
	machine, err := l.store.GetMachine(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "machines.get", Cause: err}
	}
	if machine == nil {
		return nil, fmt.Errorf("adjust revenue on %s: %w", id, ErrMachineNotFound)
	}

	machine.Revenue = machine.Revenue.Add(delta)
	if err := l.store.UpdateMachine(ctx, *machine); err != nil {
		return nil, &StoreError{Op: "machines.update", Cause: err}
	}
	return machine, nil
}

// DeleteMachine removes the machine unconditionally. Its transactions
// stay in the log; readers render them as "Unknown Machine".
func (l *Ledger) DeleteMachine(ctx context.Context, id MachineID) error {
	if err := l.store.DeleteMachine(ctx, id); err != nil {
		return &StoreError{Op: "machines.delete", Cause: err}
	}
	return nil
}

func validateMachine(m Machine) error {
	if strings.TrimSpace(m.Location) == "" {
		return &ValidationError{Field: "location", Reason: "must not be empty"}
	}
	if strings.TrimSpace(m.Code) == "" {
		return &ValidationError{Field: "code", Reason: "must not be empty"}
	}
	if strings.TrimSpace(m.Partner) == "" {
		return &ValidationError{Field: "partner", Reason: "must not be empty"}
	}
	if m.Split < 0 || m.Split > 100 {
		return &ValidationError{Field: "split", Reason: "must be between 0 and 100"}
	}
	if !ValidMachineStatus(m.Status) {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", m.Status)}
	}
	if m.Revenue.IsNegative() {
		return &ValidationError{Field: "revenue", Reason: "must not be negative"}
	}
	return nil
}

// =============================================================================
// EXPENSES
// =============================================================================

// RecordExpense validates and inserts an expense. Expenses never touch
// Machine.Revenue; they only fold into net profit.
func (l *Ledger) RecordExpense(ctx context.Context, e Expense) (*Expense, error) {
	if !e.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "expense amount must be positive"}
	}
	if strings.TrimSpace(e.Category) == "" {
		return nil, &ValidationError{Field: "category", Reason: "must not be empty"}
	}

	now := l.now()
	e.ID = ExpenseID(fmt.Sprintf("expense-%d", now.UnixNano()))
	e.CreatedAt = now
	if e.Date.IsZero() {
		e.Date = now
	}

	if err := l.store.CreateExpense(ctx, e); err != nil {
		return nil, &StoreError{Op: "expenses.create", Cause: err}
	}
	return &e, nil
}
