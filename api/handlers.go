/*
handlers.go - HTTP API handlers for the vending ledger

PURPOSE:
  Exposes the revenue-sharing engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Machines:
    GET    /api/machines                    List fleet with share breakdowns
    POST   /api/machines                    Register machine
    PUT    /api/machines/{id}               Partial update (not revenue)
    DELETE /api/machines/{id}               Delete (no transaction cascade)
    POST   /api/machines/{id}/sales         Record a sale
    POST   /api/machines/{id}/adjustments   Manual revenue correction
    GET    /api/machines/{id}/transactions  Per-machine history

  Transactions:
    GET    /api/transactions                Recent log, machine embedded

  Expenses:
    GET    /api/expenses                    List expenses
    POST   /api/expenses                    Record expense
    DELETE /api/expenses/{id}               Delete expense

  Employees:
    GET/POST /api/employees, PUT/DELETE /api/employees/{id}

  Dashboard:
    GET    /api/dashboard                   Full derived view

REQUEST FLOW:
  1. Parse HTTP request
  2. Call domain logic (ledger, aggregation)
  3. Serialize response
  4. Map domain errors to status codes

ERROR HANDLING:
  - 400: Validation errors, invalid input
  - 404: Machine/expense/employee not found
  - 500: Store failures; a failed revenue sync after a successful
         transaction append reports the orphaned transaction id in the
         details so the caller can reconcile

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/vending-ledger/vending"
)

// unknownMachine is the placeholder readers render for transactions whose
// machine was deleted.
const unknownMachine = "Unknown Machine"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  vending.EntityStore
	Ledger *vending.Ledger
}

// NewHandler creates a new handler over the given store.
func NewHandler(store vending.EntityStore) *Handler {
	return &Handler{
		Store:  store,
		Ledger: vending.NewLedger(store),
	}
}

// =============================================================================
// MACHINE HANDLERS
// =============================================================================

// ListMachines returns the fleet, newest first, with share breakdowns.
func (h *Handler) ListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := h.Store.ListMachines(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list machines", err)
		return
	}

	dtos := make([]MachineDTO, len(machines))
	for i, m := range machines {
		dtos[i] = toMachineDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateMachine registers a new machine.
func (h *Handler) CreateMachine(w http.ResponseWriter, r *http.Request) {
	var req CreateMachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	m := vending.Machine{
		Location: req.Location,
		Code:     req.Code,
		Partner:  req.Partner,
		Split:    req.Split,
		Status:   vending.MachineStatus(req.Status),
	}
	if req.Revenue != nil {
		m.Revenue = decimal.NewFromFloat(*req.Revenue)
	}

	created, err := h.Ledger.CreateMachine(r.Context(), m)
	if err != nil {
		writeDomainError(w, "Failed to create machine", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMachineDTO(*created))
}

// UpdateMachine applies a partial update. Revenue is rejected here; the
// adjustment endpoint exists for manual corrections.
func (h *Handler) UpdateMachine(w http.ResponseWriter, r *http.Request) {
	id := vending.MachineID(chi.URLParam(r, "id"))

	var req UpdateMachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch := vending.MachinePatch{
		Location: req.Location,
		Code:     req.Code,
		Partner:  req.Partner,
		Split:    req.Split,
	}
	if req.Status != nil {
		status := vending.MachineStatus(*req.Status)
		patch.Status = &status
	}

	updated, err := h.Ledger.UpdateMachine(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, "Failed to update machine", err)
		return
	}
	writeJSON(w, http.StatusOK, toMachineDTO(*updated))
}

// DeleteMachine removes a machine. Its transactions stay behind.
func (h *Handler) DeleteMachine(w http.ResponseWriter, r *http.Request) {
	id := vending.MachineID(chi.URLParam(r, "id"))

	if err := h.Ledger.DeleteMachine(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete machine", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdjustRevenue applies a manual revenue correction.
func (h *Handler) AdjustRevenue(w http.ResponseWriter, r *http.Request) {
	id := vending.MachineID(chi.URLParam(r, "id"))

	var req AdjustRevenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updated, err := h.Ledger.AdjustRevenue(r.Context(), id, decimal.NewFromFloat(req.Delta))
	if err != nil {
		writeDomainError(w, "Failed to adjust revenue", err)
		return
	}
	writeJSON(w, http.StatusOK, toMachineDTO(*updated))
}

// =============================================================================
// SALE / TRANSACTION HANDLERS
// =============================================================================

// RecordSale appends a sale transaction and bumps the machine revenue.
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	id := vending.MachineID(chi.URLParam(r, "id"))

	var req RecordSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var date time.Time
	if req.Date != "" {
		var err error
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
	}

	tx, err := h.Ledger.RecordSale(r.Context(), id, decimal.NewFromFloat(req.Amount), req.Description, date)
	if err != nil {
		var syncErr *vending.RevenueSyncError
		if errors.As(err, &syncErr) {
			// The transaction exists; tell the caller which one so the
			// machine revenue can be reconciled.
			writeError(w, http.StatusInternalServerError,
				fmt.Sprintf("Sale recorded as %s but machine revenue was not updated", syncErr.TransactionID), err)
			return
		}
		writeDomainError(w, "Failed to record sale", err)
		return
	}

	machine, _ := h.Store.GetMachine(r.Context(), id)
	dto := h.toTransactionDTO(*tx, machine)
	writeJSON(w, http.StatusCreated, dto)
}

// ListTransactions returns the recent log, newest first, with the owning
// machine embedded (or the "Unknown Machine" placeholder for orphans).
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	txs, err := h.Store.ListTransactions(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}
	machines, err := h.Store.ListMachines(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list machines", err)
		return
	}

	byID := make(map[vending.MachineID]vending.Machine, len(machines))
	for _, m := range machines {
		byID[m.ID] = m
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		if m, ok := byID[tx.MachineID]; ok {
			dtos[i] = h.toTransactionDTO(tx, &m)
		} else {
			dtos[i] = h.toTransactionDTO(tx, nil)
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMachineTransactions returns one machine's history. Works for
// deleted machines too, so orphaned history stays reachable.
func (h *Handler) GetMachineTransactions(w http.ResponseWriter, r *http.Request) {
	id := vending.MachineID(chi.URLParam(r, "id"))
	ctx := r.Context()

	txs, err := h.Ledger.MachineTransactions(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to list transactions", err)
		return
	}

	machine, err := h.Store.GetMachine(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get machine", err)
		return
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = h.toTransactionDTO(tx, machine)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.Store.ListExpenses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list expenses", err)
		return
	}

	dtos := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		dtos[i] = toExpenseDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	e := vending.Expense{
		Category:    req.Category,
		Description: req.Description,
		Amount:      decimal.NewFromFloat(req.Amount),
		Recurring:   req.Recurring,
	}
	if req.MachineID != nil {
		id := vending.MachineID(*req.MachineID)
		e.MachineID = &id
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		e.Date = date
	}

	created, err := h.Ledger.RecordExpense(r.Context(), e)
	if err != nil {
		writeDomainError(w, "Failed to record expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(*created))
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := vending.ExpenseID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteExpense(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EMPLOYEE HANDLERS - Plain data entry, no ledger coupling
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required", nil)
		return
	}
	if !vending.ValidEmployeeRole(vending.EmployeeRole(req.Role)) {
		writeError(w, http.StatusBadRequest, "role must be Staff, Manager or Owner", nil)
		return
	}
	hireDate, err := time.Parse("2006-01-02", req.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hire_date format (use YYYY-MM-DD)", err)
		return
	}

	now := time.Now().UTC()
	e := vending.Employee{
		ID:        vending.EmployeeID(fmt.Sprintf("emp-%d", now.UnixNano())),
		Name:      req.Name,
		Email:     req.Email,
		Role:      vending.EmployeeRole(req.Role),
		Phone:     req.Phone,
		HireDate:  hireDate,
		IsActive:  true,
		CreatedAt: now,
	}
	if req.HourlyRate != nil {
		rate := decimal.NewFromFloat(*req.HourlyRate)
		e.HourlyRate = &rate
	}
	if req.IsActive != nil {
		e.IsActive = *req.IsActive
	}

	if err := h.Store.CreateEmployee(r.Context(), e); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(e))
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := vending.EmployeeID(chi.URLParam(r, "id"))
	ctx := r.Context()

	existing, err := h.Store.GetEmployee(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Email != "" {
		existing.Email = req.Email
	}
	if req.Role != "" {
		if !vending.ValidEmployeeRole(vending.EmployeeRole(req.Role)) {
			writeError(w, http.StatusBadRequest, "role must be Staff, Manager or Owner", nil)
			return
		}
		existing.Role = vending.EmployeeRole(req.Role)
	}
	if req.Phone != "" {
		existing.Phone = req.Phone
	}
	if req.HireDate != "" {
		hireDate, err := time.Parse("2006-01-02", req.HireDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid hire_date format (use YYYY-MM-DD)", err)
			return
		}
		existing.HireDate = hireDate
	}
	if req.HourlyRate != nil {
		rate := decimal.NewFromFloat(*req.HourlyRate)
		existing.HourlyRate = &rate
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if err := h.Store.UpdateEmployee(ctx, *existing); err != nil {
		writeDomainError(w, "Failed to update employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*existing))
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := vending.EmployeeID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteEmployee(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// DASHBOARD
// =============================================================================

// GetDashboard recomputes the full derived view from fresh snapshots.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	machines, err := h.Store.ListMachines(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list machines", err)
		return
	}
	transactions, err := h.Store.ListTransactions(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}
	expenses, err := h.Store.ListExpenses(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list expenses", err)
		return
	}

	summary := vending.Summarize(machines, expenses)

	perf := make([]MachinePerfDTO, len(machines))
	for i, m := range machines {
		perf[i] = MachinePerfDTO{
			ID:           string(m.ID),
			Code:         m.Code,
			Location:     m.Location,
			Revenue:      toFloat(m.Revenue),
			SharePercent: toFloat(vending.MachineShare(m, summary.TotalRevenue)),
		}
	}

	byCategory := vending.ExpensesByCategory(expenses)
	categories := make([]CategoryTotalDTO, 0, len(byCategory))
	for category, total := range byCategory {
		categories = append(categories, CategoryTotalDTO{
			Category: category,
			Total:    toFloat(total),
			Percent:  toFloat(vending.PercentOfTotal(total, summary.TotalExpenses)),
		})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Category < categories[j].Category })

	buckets := vending.DailySales(transactions, time.Now().UTC())
	days := make([]DayBucketDTO, len(buckets))
	for i, b := range buckets {
		days[i] = DayBucketDTO{
			Day:       b.Day.Format("2006-01-02"),
			Total:     toFloat(b.Total),
			HeightPct: toFloat(b.HeightPct),
		}
	}

	warnings := vending.Inspect(machines, transactions)
	warnDTOs := make([]ConsistencyWarnDTO, len(warnings))
	for i, warn := range warnings {
		warnDTOs[i] = ConsistencyWarnDTO{Kind: string(warn.Kind), Detail: warn.Detail}
	}

	writeJSON(w, http.StatusOK, DashboardDTO{
		Summary: SummaryDTO{
			TotalRevenue:       toFloat(summary.TotalRevenue),
			OperatorIncome:     toFloat(summary.OperatorIncome),
			PartnerIncome:      toFloat(summary.PartnerIncome),
			TotalExpenses:      toFloat(summary.TotalExpenses),
			NetProfit:          toFloat(summary.NetProfit),
			GSTOwed:            toFloat(summary.GSTOwed),
			ActiveMachineCount: summary.ActiveMachineCount,
		},
		Machines:           perf,
		ExpensesByCategory: categories,
		DailySales:         days,
		Warnings:           warnDTOs,
	})
}

// =============================================================================
// DTO CONVERSION
// =============================================================================

func toMachineDTO(m vending.Machine) MachineDTO {
	shares := vending.SaleShares(m.Revenue, m.Split)
	return MachineDTO{
		ID:               string(m.ID),
		Location:         m.Location,
		Code:             m.Code,
		Partner:          m.Partner,
		Split:            m.Split,
		Status:           string(m.Status),
		Revenue:          toFloat(m.Revenue),
		OperatorShare:    toFloat(shares.OperatorShare),
		PartnerShare:     toFloat(shares.PartnerShare),
		GST:              toFloat(shares.GST),
		NetOperatorShare: toFloat(shares.NetOperatorShare),
		CreatedAt:        m.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) toTransactionDTO(tx vending.Transaction, machine *vending.Machine) TransactionDTO {
	dto := TransactionDTO{
		ID:          string(tx.ID),
		MachineID:   string(tx.MachineID),
		Amount:      toFloat(tx.Amount),
		Date:        tx.Date.Format("2006-01-02"),
		Type:        string(tx.Type),
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}

	if machine == nil {
		dto.Machine = &MachineSummaryDTO{ID: string(tx.MachineID), Location: unknownMachine}
		return dto
	}

	dto.Machine = &MachineSummaryDTO{
		ID:       string(machine.ID),
		Location: machine.Location,
		Code:     machine.Code,
	}
	// Shares need the split, which only resolving the machine provides.
	shares := vending.SaleShares(tx.Amount, machine.Split)
	dto.Shares = &ShareBreakdownDTO{
		OperatorShare:    toFloat(shares.OperatorShare),
		PartnerShare:     toFloat(shares.PartnerShare),
		GST:              toFloat(shares.GST),
		NetOperatorShare: toFloat(shares.NetOperatorShare),
	}
	return dto
}

func toExpenseDTO(e vending.Expense) ExpenseDTO {
	dto := ExpenseDTO{
		ID:          string(e.ID),
		Category:    e.Category,
		Description: e.Description,
		Amount:      toFloat(e.Amount),
		Date:        e.Date.Format("2006-01-02"),
		Recurring:   e.Recurring,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	if e.MachineID != nil {
		id := string(*e.MachineID)
		dto.MachineID = &id
	}
	return dto
}

func toEmployeeDTO(e vending.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:        string(e.ID),
		Name:      e.Name,
		Email:     e.Email,
		Role:      string(e.Role),
		Phone:     e.Phone,
		HireDate:  e.HireDate.Format("2006-01-02"),
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
	if e.HourlyRate != nil {
		rate := toFloat(*e.HourlyRate)
		dto.HourlyRate = &rate
	}
	return dto
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case vending.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	case vending.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
