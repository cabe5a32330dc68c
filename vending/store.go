/*
store.go - Persistence interfaces consumed by the engine

PURPOSE:
  Defines the contract between the ledger/aggregation engines and the
  record store. Different implementations can use SQLite or in-memory
  storage; the engine never assumes more than what is written here.

APPEND-ONLY CONTRACT:
  TransactionStore has no update or delete methods. Transactions are
  immutable once appended; corrections happen at the machine level via
  manual revenue adjustment, with the original entries preserved.

NO TRANSACTION DISCIPLINE:
  The engine treats each store call as independently durable once
  acknowledged. RecordSale issues its two writes in a fixed order
  (transaction first, then machine revenue) so a crash between them can
  only leave a transaction without its revenue bump, never the reverse.

ORPHAN POLICY:
  Deleting a machine does not cascade to its transactions. Readers must
  tolerate transactions whose MachineID no longer resolves.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - store/memory: In-memory store for testing/dev

SEE ALSO:
  - ledger.go: The single writer of machines + transactions
  - aggregate.go: Read-only consumer of full snapshots
*/
package vending

import "context"

// =============================================================================
// MACHINE STORE
// =============================================================================

type MachineStore interface {
	// ListMachines returns all machines, newest first by CreatedAt.
	ListMachines(ctx context.Context) ([]Machine, error)

	// GetMachine returns the machine or (nil, nil) when absent.
	GetMachine(ctx context.Context, id MachineID) (*Machine, error)

	// CreateMachine inserts a new machine record.
	CreateMachine(ctx context.Context, m Machine) error

	// UpdateMachine writes back a full machine record.
	// Returns ErrMachineNotFound if the id is absent.
	UpdateMachine(ctx context.Context, m Machine) error

	// DeleteMachine removes the machine. Existing transactions keep their
	// machine_id reference (soft-reference semantics).
	DeleteMachine(ctx context.Context, id MachineID) error
}

// =============================================================================
// TRANSACTION STORE - Append-only
// =============================================================================

type TransactionStore interface {
	// ListTransactions returns all transactions, newest first by CreatedAt.
	ListTransactions(ctx context.Context) ([]Transaction, error)

	// ListMachineTransactions returns one machine's transactions, newest
	// first by CreatedAt. Works for deleted machines too (orphans).
	ListMachineTransactions(ctx context.Context, id MachineID) ([]Transaction, error)

	// AppendTransaction adds a transaction.
	// This is the ONLY write operation: no update, no delete.
	AppendTransaction(ctx context.Context, tx Transaction) error
}

// =============================================================================
// EXPENSE STORE
// =============================================================================

type ExpenseStore interface {
	// ListExpenses returns all expenses, newest first by CreatedAt.
	ListExpenses(ctx context.Context) ([]Expense, error)

	// CreateExpense inserts a new expense record.
	CreateExpense(ctx context.Context, e Expense) error

	// DeleteExpense removes the expense.
	// Returns ErrExpenseNotFound if the id is absent.
	DeleteExpense(ctx context.Context, id ExpenseID) error
}

// =============================================================================
// EMPLOYEE STORE - Plain records, no ledger coupling
// =============================================================================

type EmployeeStore interface {
	ListEmployees(ctx context.Context) ([]Employee, error)

	// GetEmployee returns the employee or (nil, nil) when absent.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	CreateEmployee(ctx context.Context, e Employee) error

	// UpdateEmployee writes back a full employee record.
	// Returns ErrEmployeeNotFound if the id is absent.
	UpdateEmployee(ctx context.Context, e Employee) error

	DeleteEmployee(ctx context.Context, id EmployeeID) error
}

// =============================================================================
// ENTITY STORE - What the ledger engine takes
// =============================================================================

// EntityStore is the full record store the engine is wired against.
type EntityStore interface {
	MachineStore
	TransactionStore
	ExpenseStore
	EmployeeStore
}
