/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements vending.EntityStore using SQLite. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The transactions table is append-only:
  - No UPDATE statements on transactions
  - No DELETE statements on transactions
  - Deleting a machine leaves its transactions behind (soft references)

KEY TABLES:
  machines:      Fleet records with the cached revenue field
  transactions:  Immutable sale/maintenance/restock log
  expenses:      Cost records, machine-scoped or fleet-wide
  employees:     Staff records

MONEY COLUMNS:
  Amounts are stored as TEXT holding decimal strings, round-tripped
  through shopspring/decimal. REAL columns would reintroduce the
  floating-point drift the engine exists to avoid.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/vendipro.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := vending.NewLedger(store)

SEE ALSO:
  - vending/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/vending-ledger/vending"
)

// Store implements vending.EntityStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Machines (cached revenue field, single writer: the ledger)
	CREATE TABLE IF NOT EXISTS machines (
		id TEXT PRIMARY KEY,
		location TEXT NOT NULL,
		code TEXT NOT NULL,
		partner TEXT NOT NULL,
		split INTEGER NOT NULL,
		status TEXT NOT NULL,
		revenue TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_machines_created_at
		ON machines(created_at DESC);

	-- Transactions (append-only log; no UPDATE or DELETE, ever).
	-- machine_id is a soft reference: no FOREIGN KEY, deleted machines
	-- leave orphaned rows behind by design.
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		machine_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_machine
		ON transactions(machine_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_created_at
		ON transactions(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_type
		ON transactions(tx_type);

	-- Expenses (machine_id NULL = fleet-wide)
	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		machine_id TEXT,
		category TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		recurring BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_category
		ON expenses(category);
	CREATE INDEX IF NOT EXISTS idx_expenses_created_at
		ON expenses(created_at DESC);

	-- Employees (no ledger coupling)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		phone TEXT,
		hire_date TEXT NOT NULL,
		hourly_rate TEXT,
		is_active BOOLEAN DEFAULT TRUE,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// MACHINE STORE
// =============================================================================

func (s *Store) ListMachines(ctx context.Context) ([]vending.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, location, code, partner, split, status, revenue, created_at
		FROM machines
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query machines: %w", err)
	}
	defer rows.Close()

	var machines []vending.Machine
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, err
		}
		machines = append(machines, m)
	}
	return machines, rows.Err()
}

func (s *Store) GetMachine(ctx context.Context, id vending.MachineID) (*vending.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, location, code, partner, split, status, revenue, created_at
		FROM machines WHERE id = ?
	`, id)

	m, err := scanMachine(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) CreateMachine(ctx context.Context, m vending.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO machines (id, location, code, partner, split, status, revenue, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID, m.Location, m.Code, m.Partner, m.Split, m.Status,
		m.Revenue.String(), m.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert machine: %w", err)
	}
	return nil
}

func (s *Store) UpdateMachine(ctx context.Context, m vending.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE machines
		SET location = ?, code = ?, partner = ?, split = ?, status = ?, revenue = ?
		WHERE id = ?
	`,
		m.Location, m.Code, m.Partner, m.Split, m.Status, m.Revenue.String(), m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update machine: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return vending.ErrMachineNotFound
	}
	return nil
}

func (s *Store) DeleteMachine(ctx context.Context, id vending.MachineID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// No cascade to transactions: orphans are tolerated by readers.
	_, err := s.db.ExecContext(ctx, "DELETE FROM machines WHERE id = ?", id)
	return err
}

func scanMachine(row interface{ Scan(...any) error }) (vending.Machine, error) {
	var (
		m         vending.Machine
		revenue   string
		createdAt string
	)
	err := row.Scan(&m.ID, &m.Location, &m.Code, &m.Partner, &m.Split, &m.Status, &revenue, &createdAt)
	if err != nil {
		return m, err
	}
	m.Revenue = parseDecimal(revenue)
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}

// =============================================================================
// TRANSACTION STORE - Append-only
// =============================================================================

func (s *Store) ListTransactions(ctx context.Context) ([]vending.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTransactions(ctx, `
		SELECT id, machine_id, amount, date, tx_type, description, created_at
		FROM transactions
		ORDER BY created_at DESC, id DESC
	`)
}

func (s *Store) ListMachineTransactions(ctx context.Context, id vending.MachineID) ([]vending.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTransactions(ctx, `
		SELECT id, machine_id, amount, date, tx_type, description, created_at
		FROM transactions
		WHERE machine_id = ?
		ORDER BY created_at DESC, id DESC
	`, id)
}

func (s *Store) AppendTransaction(ctx context.Context, tx vending.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, machine_id, amount, date, tx_type, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		tx.ID, tx.MachineID, tx.Amount.String(),
		tx.Date.UTC().Format("2006-01-02"),
		tx.Type, nullString(tx.Description),
		tx.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]vending.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []vending.Transaction
	for rows.Next() {
		var (
			tx          vending.Transaction
			amount      string
			date        string
			description sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&tx.ID, &tx.MachineID, &amount, &date, &tx.Type, &description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Amount = parseDecimal(amount)
		tx.Date, _ = time.Parse("2006-01-02", date)
		tx.Description = description.String
		tx.CreatedAt = parseTime(createdAt)
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// =============================================================================
// EXPENSE STORE
// =============================================================================

func (s *Store) ListExpenses(ctx context.Context) ([]vending.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, machine_id, category, description, amount, date, recurring, created_at
		FROM expenses
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []vending.Expense
	for rows.Next() {
		var (
			e           vending.Expense
			machineID   sql.NullString
			description sql.NullString
			amount      string
			date        string
			createdAt   string
		)
		if err := rows.Scan(&e.ID, &machineID, &e.Category, &description, &amount, &date, &e.Recurring, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if machineID.Valid {
			id := vending.MachineID(machineID.String)
			e.MachineID = &id
		}
		e.Description = description.String
		e.Amount = parseDecimal(amount)
		e.Date, _ = time.Parse("2006-01-02", date)
		e.CreatedAt = parseTime(createdAt)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *Store) CreateExpense(ctx context.Context, e vending.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var machineID any
	if e.MachineID != nil {
		machineID = string(*e.MachineID)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, machine_id, category, description, amount, date, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, machineID, e.Category, nullString(e.Description),
		e.Amount.String(), e.Date.UTC().Format("2006-01-02"),
		e.Recurring, e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, id vending.ExpenseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return vending.ErrExpenseNotFound
	}
	return nil
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

func (s *Store) ListEmployees(ctx context.Context) ([]vending.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, role, phone, hire_date, hourly_rate, is_active, created_at
		FROM employees
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []vending.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id vending.EmployeeID) (*vending.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, phone, hire_date, hourly_rate, is_active, created_at
		FROM employees WHERE id = ?
	`, id)

	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) CreateEmployee(ctx context.Context, e vending.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, role, phone, hire_date, hourly_rate, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.Name, e.Email, e.Role, nullString(e.Phone),
		e.HireDate.UTC().Format("2006-01-02"),
		nullDecimal(e.HourlyRate), e.IsActive,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}

func (s *Store) UpdateEmployee(ctx context.Context, e vending.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE employees
		SET name = ?, email = ?, role = ?, phone = ?, hire_date = ?, hourly_rate = ?, is_active = ?
		WHERE id = ?
	`,
		e.Name, e.Email, e.Role, nullString(e.Phone),
		e.HireDate.UTC().Format("2006-01-02"),
		nullDecimal(e.HourlyRate), e.IsActive, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return vending.ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id vending.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return vending.ErrEmployeeNotFound
	}
	return nil
}

func scanEmployee(row interface{ Scan(...any) error }) (vending.Employee, error) {
	var (
		e          vending.Employee
		phone      sql.NullString
		hireDate   string
		hourlyRate sql.NullString
		createdAt  string
	)
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Role, &phone, &hireDate, &hourlyRate, &e.IsActive, &createdAt)
	if err != nil {
		return e, err
	}
	e.Phone = phone.String
	e.HireDate, _ = time.Parse("2006-01-02", hireDate)
	if hourlyRate.Valid {
		rate := parseDecimal(hourlyRate.String)
		e.HourlyRate = &rate
	}
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
