/*
Package vending provides the core revenue-sharing ledger engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking a
  fleet of vending machines shared between an operator and third-party
  partners. It splits sale revenue between the two parties, computes GST,
  keeps the cached per-machine revenue consistent with the append-only
  transaction log, and folds the full collections into fleet-wide totals.

KEY CONCEPTS IN THIS FILE (types.go):
  - Machine: A vending machine with a partner split and cached revenue
  - Transaction: An immutable log entry for a sale/maintenance/restock
  - Expense: A cost record, independent of machine revenue
  - Employee: A staff record (data entry only, no ledger coupling)

DESIGN PRINCIPLES:
  1. Immutability: Transactions are append-only, never edited or deleted
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Type Safety: Strong typing for IDs prevents mixing machine/tx IDs
  4. Single Writer: Machine.Revenue is only mutated by the Ledger engine

USAGE:
  m := vending.Machine{Location: "Auckland Mall", Code: "AKL001",
      Partner: "Coca Cola", Split: 70, Status: vending.MachineActive}
  shares := vending.SaleShares(decimal.NewFromInt(100), m.Split)

SEE ALSO:
  - split.go: Operator/partner share and GST calculation
  - ledger.go: Sale recording and machine mutation
  - aggregate.go: Fleet-wide summary folds
*/
package vending

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MachineID string
type TransactionID string
type ExpenseID string
type EmployeeID string

// =============================================================================
// MACHINE - A vending machine with a revenue-sharing agreement
// =============================================================================

type MachineStatus string

const (
	MachineActive      MachineStatus = "active"
	MachineInactive    MachineStatus = "inactive"
	MachineMaintenance MachineStatus = "maintenance"
)

// ValidMachineStatus reports whether s is one of the known statuses.
func ValidMachineStatus(s MachineStatus) bool {
	switch s {
	case MachineActive, MachineInactive, MachineMaintenance:
		return true
	}
	return false
}

// Machine is a vending machine owned by the operator and serviced under a
// partner agreement.
//
// Revenue is a derived cache: it must always equal the sum of Amount over
// all sale transactions referencing this machine. Expenses are tracked
// separately and never reduce Revenue. The Ledger engine is the only
// writer of this field during sale recording; AdjustRevenue exists for
// manual corrections.
type Machine struct {
	ID        MachineID
	Location  string
	Code      string
	Partner   string
	Split     int // partner's percentage of each sale, 0-100
	Status    MachineStatus
	Revenue   decimal.Decimal
	CreatedAt time.Time
}

// MachinePatch carries a partial machine update. Nil fields are left
// unchanged. Revenue is deliberately absent: the general update path must
// not mutate it (see ledger.go).
type MachinePatch struct {
	Location *string
	Code     *string
	Partner  *string
	Split    *int
	Status   *MachineStatus
}

// =============================================================================
// TRANSACTION - Immutable ledger entry
// =============================================================================

type TransactionType string

const (
	TxSale        TransactionType = "sale"        // Vend sale, bumps Machine.Revenue
	TxMaintenance TransactionType = "maintenance" // Service visit record
	TxRestock     TransactionType = "restock"     // Stock refill record
)

// Transaction is an append-only log entry. Once created it is never
// updated or deleted; a machine deletion leaves its transactions behind
// as soft references (readers render "Unknown Machine").
//
// CreatedAt establishes the total order used by "recent transactions"
// views; Date is the user-editable business date.
type Transaction struct {
	ID          TransactionID
	MachineID   MachineID
	Amount      decimal.Decimal // > 0
	Date        time.Time       // day granularity
	Type        TransactionType
	Description string
	CreatedAt   time.Time
}

// =============================================================================
// EXPENSE - Cost record, independent of machine revenue
// =============================================================================

// Expense never reduces Machine.Revenue; it only folds into the
// net-profit aggregation.
type Expense struct {
	ID          ExpenseID
	MachineID   *MachineID // nil = fleet-wide
	Category    string
	Description string
	Amount      decimal.Decimal // > 0
	Date        time.Time
	Recurring   bool
	CreatedAt   time.Time
}

// =============================================================================
// EMPLOYEE - Staff record (no derived logic)
// =============================================================================

type EmployeeRole string

const (
	RoleStaff   EmployeeRole = "Staff"
	RoleManager EmployeeRole = "Manager"
	RoleOwner   EmployeeRole = "Owner"
)

func ValidEmployeeRole(r EmployeeRole) bool {
	switch r {
	case RoleStaff, RoleManager, RoleOwner:
		return true
	}
	return false
}

type Employee struct {
	ID         EmployeeID
	Name       string
	Email      string
	Role       EmployeeRole
	Phone      string
	HireDate   time.Time
	HourlyRate *decimal.Decimal
	IsActive   bool
	CreatedAt  time.Time
}
