/*
errors.go - Centralized error types for the vending engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The API layer maps these onto HTTP statuses.

ERROR CATEGORIES:
  1. Validation errors - Rejected before any write reaches the store
  2. Not-found errors  - A referenced record is absent
  3. Store errors      - The persistence collaborator failed
  4. Revenue sync      - A sale transaction was written but the machine
                         revenue update failed afterwards

CONSISTENCY WARNINGS:
  ConsistencyWarning is a value, not an error. The aggregation engine
  emits warnings for orphaned transactions and negative derived figures;
  they are rendered informationally and never block computation.

SEE ALSO:
  - ledger.go: Produces validation/not-found/sync errors
  - aggregate.go: Produces consistency warnings
*/
package vending

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMachineNotFound is returned when a referenced machine id is absent.
	ErrMachineNotFound = errors.New("machine not found")

	// ErrExpenseNotFound is returned when a referenced expense id is absent.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrEmployeeNotFound is returned when a referenced employee id is absent.
	ErrEmployeeNotFound = errors.New("employee not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a missing or out-of-range field. It is always
// produced before any write, so a validation failure never leaves partial
// state behind.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreError wraps a failure from the persistence collaborator. The core
// never retries; the originating cause stays attached for the caller.
type StoreError struct {
	Op    string // e.g. "machines.update"
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

// RevenueSyncError reports the known consistency gap in sale recording:
// the sale transaction was appended but the machine revenue update failed.
// The ledger never masks this state; the caller reconciles using the
// transaction id carried here.
type RevenueSyncError struct {
	TransactionID TransactionID
	MachineID     MachineID
	Amount        decimal.Decimal
	Cause         error
}

func (e *RevenueSyncError) Error() string {
	return fmt.Sprintf(
		"sale transaction %s recorded but revenue update for machine %s (+%s) failed: %v",
		e.TransactionID, e.MachineID, e.Amount, e.Cause)
}

func (e *RevenueSyncError) Unwrap() error { return e.Cause }

// =============================================================================
// CONSISTENCY WARNINGS - Computed, never thrown
// =============================================================================

type WarningKind string

const (
	WarnUnknownMachine  WarningKind = "unknown_machine"  // transaction references a deleted machine
	WarnNegativeRevenue WarningKind = "negative_revenue" // cached revenue below zero
)

// ConsistencyWarning is an informational finding from the aggregation
// engine's inspection pass. It is not an error and never blocks a fold.
type ConsistencyWarning struct {
	Kind          WarningKind
	MachineID     MachineID
	TransactionID TransactionID
	Detail        string
}

func (w ConsistencyWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid caller input.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMachineNotFound) ||
		errors.Is(err, ErrExpenseNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}
