// Package memory provides an in-memory EntityStore (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/vending-ledger/vending"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of vending.EntityStore
// =============================================================================

type Store struct {
	mu           sync.RWMutex
	machines     map[vending.MachineID]vending.Machine
	transactions []vending.Transaction
	expenses     map[vending.ExpenseID]vending.Expense
	employees    map[vending.EmployeeID]vending.Employee

	// Optional fault injection for tests: when set, the matching write
	// fails with the given error.
	FailUpdateMachine     error
	FailAppendTransaction error
}

func New() *Store {
	return &Store{
		machines:  make(map[vending.MachineID]vending.Machine),
		expenses:  make(map[vending.ExpenseID]vending.Expense),
		employees: make(map[vending.EmployeeID]vending.Employee),
	}
}

// =============================================================================
// MACHINES
// =============================================================================

func (s *Store) ListMachines(_ context.Context) ([]vending.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]vending.Machine, 0, len(s.machines))
	for _, m := range s.machines {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (s *Store) GetMachine(_ context.Context, id vending.MachineID) (*vending.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.machines[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *Store) CreateMachine(_ context.Context, m vending.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machines[m.ID] = m
	return nil
}

func (s *Store) UpdateMachine(_ context.Context, m vending.Machine) error {
	if s.FailUpdateMachine != nil {
		return s.FailUpdateMachine
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.machines[m.ID]; !ok {
		return vending.ErrMachineNotFound
	}
	s.machines[m.ID] = m
	return nil
}

func (s *Store) DeleteMachine(_ context.Context, id vending.MachineID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// No cascade: transactions keep their machine_id reference.
	delete(s.machines, id)
	return nil
}

// =============================================================================
// TRANSACTIONS - Append-only
// =============================================================================

func (s *Store) ListTransactions(_ context.Context) ([]vending.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedTransactions(nil), nil
}

func (s *Store) ListMachineTransactions(_ context.Context, id vending.MachineID) ([]vending.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedTransactions(func(tx vending.Transaction) bool { return tx.MachineID == id }), nil
}

func (s *Store) AppendTransaction(_ context.Context, tx vending.Transaction) error {
	if s.FailAppendTransaction != nil {
		return s.FailAppendTransaction
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, tx)
	return nil
}

func (s *Store) sortedTransactions(keep func(vending.Transaction) bool) []vending.Transaction {
	var result []vending.Transaction
	for _, tx := range s.transactions {
		if keep == nil || keep(tx) {
			result = append(result, tx)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

// =============================================================================
// EXPENSES
// =============================================================================

func (s *Store) ListExpenses(_ context.Context) ([]vending.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]vending.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (s *Store) CreateExpense(_ context.Context, e vending.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id vending.ExpenseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[id]; !ok {
		return vending.ErrExpenseNotFound
	}
	delete(s.expenses, id)
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) ListEmployees(_ context.Context) ([]vending.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]vending.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) GetEmployee(_ context.Context, id vending.EmployeeID) (*vending.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *Store) CreateEmployee(_ context.Context, e vending.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
	return nil
}

func (s *Store) UpdateEmployee(_ context.Context, e vending.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[e.ID]; !ok {
		return vending.ErrEmployeeNotFound
	}
	s.employees[e.ID] = e
	return nil
}

func (s *Store) DeleteEmployee(_ context.Context, id vending.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[id]; !ok {
		return vending.ErrEmployeeNotFound
	}
	delete(s.employees, id)
	return nil
}
