/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY IN JSON:
  Money fields are serialized as float64. The engine computes at decimal
  precision; rounding to a JSON number happens only at this boundary.

VALIDATION:
  Validation is done in the ledger engine, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - vending/types.go: The domain model behind them
*/
package api

// =============================================================================
// MACHINE TYPES
// =============================================================================

// MachineDTO represents a machine in API responses, including the share
// breakdown of its cumulative revenue.
type MachineDTO struct {
	ID               string  `json:"id"`
	Location         string  `json:"location"`
	Code             string  `json:"code"`
	Partner          string  `json:"partner"`
	Split            int     `json:"split"`
	Status           string  `json:"status"`
	Revenue          float64 `json:"revenue"`
	OperatorShare    float64 `json:"operator_share"`
	PartnerShare     float64 `json:"partner_share"`
	GST              float64 `json:"gst"`
	NetOperatorShare float64 `json:"net_operator_share"`
	CreatedAt        string  `json:"created_at,omitempty"`
}

// CreateMachineRequest is the request to register a machine. Revenue may
// be seeded for fleets migrated from another system.
type CreateMachineRequest struct {
	Location string   `json:"location"`
	Code     string   `json:"code"`
	Partner  string   `json:"partner"`
	Split    int      `json:"split"`
	Status   string   `json:"status,omitempty"`
	Revenue  *float64 `json:"revenue,omitempty"`
}

// UpdateMachineRequest is a partial machine update. Absent fields are
// left unchanged. Revenue is not accepted here; use the adjustment
// endpoint for manual corrections.
type UpdateMachineRequest struct {
	Location *string `json:"location,omitempty"`
	Code     *string `json:"code,omitempty"`
	Partner  *string `json:"partner,omitempty"`
	Split    *int    `json:"split,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// AdjustRevenueRequest is a manual revenue correction (may be negative).
type AdjustRevenueRequest struct {
	Delta float64 `json:"delta"`
}

// =============================================================================
// TRANSACTION TYPES
// =============================================================================

// RecordSaleRequest submits one sale against a machine.
type RecordSaleRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

// TransactionDTO represents a ledger entry in API responses. Machine is
// populated from a separate lookup; orphaned entries carry the
// "Unknown Machine" placeholder.
type TransactionDTO struct {
	ID          string              `json:"id"`
	MachineID   string              `json:"machine_id"`
	Amount      float64             `json:"amount"`
	Date        string              `json:"date"`
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	CreatedAt   string              `json:"created_at"`
	Machine     *MachineSummaryDTO  `json:"machine,omitempty"`
	Shares      *ShareBreakdownDTO  `json:"shares,omitempty"`
}

// MachineSummaryDTO is the lightweight machine reference embedded in
// transaction listings.
type MachineSummaryDTO struct {
	ID       string `json:"id"`
	Location string `json:"location"`
	Code     string `json:"code"`
}

// ShareBreakdownDTO is the operator/partner/GST split of one amount.
type ShareBreakdownDTO struct {
	OperatorShare    float64 `json:"operator_share"`
	PartnerShare     float64 `json:"partner_share"`
	GST              float64 `json:"gst"`
	NetOperatorShare float64 `json:"net_operator_share"`
}

// =============================================================================
// EXPENSE TYPES
// =============================================================================

type ExpenseDTO struct {
	ID          string  `json:"id"`
	MachineID   *string `json:"machine_id"` // null = fleet-wide
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Recurring   bool    `json:"recurring"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

type CreateExpenseRequest struct {
	MachineID   *string `json:"machine_id,omitempty"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date,omitempty"`
	Recurring   bool    `json:"recurring,omitempty"`
}

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

type EmployeeDTO struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Role       string   `json:"role"`
	Phone      string   `json:"phone,omitempty"`
	HireDate   string   `json:"hire_date"`
	HourlyRate *float64 `json:"hourly_rate,omitempty"`
	IsActive   bool     `json:"is_active"`
	CreatedAt  string   `json:"created_at,omitempty"`
}

type CreateEmployeeRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Role       string   `json:"role"`
	Phone      string   `json:"phone,omitempty"`
	HireDate   string   `json:"hire_date"`
	HourlyRate *float64 `json:"hourly_rate,omitempty"`
	IsActive   *bool    `json:"is_active,omitempty"`
}

// =============================================================================
// DASHBOARD TYPES
// =============================================================================

// DashboardDTO is the full derived view: fleet totals, per-machine
// shares, expense breakdown, sales histogram, and consistency warnings.
type DashboardDTO struct {
	Summary            SummaryDTO            `json:"summary"`
	Machines           []MachinePerfDTO      `json:"machines"`
	ExpensesByCategory []CategoryTotalDTO    `json:"expenses_by_category"`
	DailySales         []DayBucketDTO        `json:"daily_sales"`
	Warnings           []ConsistencyWarnDTO  `json:"warnings"`
}

type SummaryDTO struct {
	TotalRevenue       float64 `json:"total_revenue"`
	OperatorIncome     float64 `json:"operator_income"`
	PartnerIncome      float64 `json:"partner_income"`
	TotalExpenses      float64 `json:"total_expenses"`
	NetProfit          float64 `json:"net_profit"`
	GSTOwed            float64 `json:"gst_owed"`
	ActiveMachineCount int     `json:"active_machine_count"`
}

// MachinePerfDTO is one machine's slice of the fleet.
type MachinePerfDTO struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Location     string  `json:"location"`
	Revenue      float64 `json:"revenue"`
	SharePercent float64 `json:"share_percent"`
}

type CategoryTotalDTO struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Percent  float64 `json:"percent"`
}

type DayBucketDTO struct {
	Day       string  `json:"day"`
	Total     float64 `json:"total"`
	HeightPct float64 `json:"height_pct"`
}

type ConsistencyWarnDTO struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
