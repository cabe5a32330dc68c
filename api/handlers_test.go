package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vending-ledger/api"
	"github.com/warp/vending-ledger/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	handler := api.NewHandler(store)
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server, store
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func createTestMachine(t *testing.T, server *httptest.Server, split int) api.MachineDTO {
	t.Helper()
	var dto api.MachineDTO
	resp := doJSON(t, http.MethodPost, server.URL+"/api/machines", api.CreateMachineRequest{
		Location: "Auckland Mall",
		Code:     "AKL001",
		Partner:  "Coca Cola",
		Split:    split,
	}, &dto)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return dto
}

// =============================================================================
// MACHINE ENDPOINTS
// =============================================================================

func TestCreateMachine_ReturnsShareBreakdown(t *testing.T) {
	server, _ := newTestServer(t)

	dto := createTestMachine(t, server, 70)

	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "active", dto.Status, "status defaults to active")
	assert.Equal(t, 70, dto.Split)
	assert.Zero(t, dto.Revenue)
}

func TestCreateMachine_ValidationError(t *testing.T) {
	server, _ := newTestServer(t)

	var errResp api.ErrorResponse
	resp := doJSON(t, http.MethodPost, server.URL+"/api/machines", api.CreateMachineRequest{
		Code: "AKL001", Partner: "Coca Cola", Split: 70, // no location
	}, &errResp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errResp.Details, "location")
}

func TestUpdateMachine_NotFound(t *testing.T) {
	server, _ := newTestServer(t)

	loc := "Elsewhere"
	resp := doJSON(t, http.MethodPut, server.URL+"/api/machines/machine-nope",
		api.UpdateMachineRequest{Location: &loc}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateMachine_SplitOutOfRange(t *testing.T) {
	server, _ := newTestServer(t)
	machine := createTestMachine(t, server, 70)

	split := 150
	resp := doJSON(t, http.MethodPut, server.URL+"/api/machines/"+machine.ID,
		api.UpdateMachineRequest{Split: &split}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// SALE RECORDING
// =============================================================================

func TestRecordSale_EndToEnd(t *testing.T) {
	// GIVEN: A machine with split 70 and zero revenue
	// WHEN: Recording a $100 sale over HTTP
	// THEN: Revenue is 100 and the share breakdown is 30/70/4.50/25.50

	server, _ := newTestServer(t)
	machine := createTestMachine(t, server, 70)

	var tx api.TransactionDTO
	resp := doJSON(t, http.MethodPost, server.URL+"/api/machines/"+machine.ID+"/sales",
		api.RecordSaleRequest{Amount: 100, Description: "launch day"}, &tx)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, "sale", tx.Type)
	assert.InDelta(t, 100, tx.Amount, 1e-9)
	require.NotNil(t, tx.Shares)
	assert.InDelta(t, 30.00, tx.Shares.OperatorShare, 1e-9)
	assert.InDelta(t, 70.00, tx.Shares.PartnerShare, 1e-9)
	assert.InDelta(t, 4.50, tx.Shares.GST, 1e-9)
	assert.InDelta(t, 25.50, tx.Shares.NetOperatorShare, 1e-9)

	var machines []api.MachineDTO
	resp = doJSON(t, http.MethodGet, server.URL+"/api/machines", nil, &machines)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, machines, 1)
	assert.InDelta(t, 100, machines[0].Revenue, 1e-9)
}

func TestRecordSale_RejectsNonPositiveAmount(t *testing.T) {
	server, store := newTestServer(t)
	machine := createTestMachine(t, server, 70)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/machines/"+machine.ID+"/sales",
		api.RecordSaleRequest{Amount: 0}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	txs, err := store.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txs, "rejected sale writes nothing")
}

func TestRecordSale_UnknownMachine(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/machines/machine-nope/sales",
		api.RecordSaleRequest{Amount: 10}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// TRANSACTION LISTING - Orphan tolerance
// =============================================================================

func TestListTransactions_OrphansRenderUnknownMachine(t *testing.T) {
	// GIVEN: A sale recorded on a machine that is later deleted
	// WHEN: Listing transactions
	// THEN: The orphan entry still appears, with the placeholder machine

	server, _ := newTestServer(t)
	machine := createTestMachine(t, server, 70)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/machines/"+machine.ID+"/sales",
		api.RecordSaleRequest{Amount: 42}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/machines/"+machine.ID, nil, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var txs []api.TransactionDTO
	resp = doJSON(t, http.MethodGet, server.URL+"/api/transactions", nil, &txs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].Machine)
	assert.Equal(t, "Unknown Machine", txs[0].Machine.Location)
	assert.Nil(t, txs[0].Shares, "no split available without the machine")
}

// =============================================================================
// EXPENSES
// =============================================================================

func TestExpenses_CreateAndList(t *testing.T) {
	server, _ := newTestServer(t)

	var created api.ExpenseDTO
	resp := doJSON(t, http.MethodPost, server.URL+"/api/expenses",
		api.CreateExpenseRequest{Category: "Rent", Amount: 100, Recurring: true}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Nil(t, created.MachineID, "fleet-wide by default")

	resp = doJSON(t, http.MethodPost, server.URL+"/api/expenses",
		api.CreateExpenseRequest{Category: "Fuel", Amount: -1}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var expenses []api.ExpenseDTO
	resp = doJSON(t, http.MethodGet, server.URL+"/api/expenses", nil, &expenses)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, expenses, 1)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_CreateValidatesRole(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/employees", api.CreateEmployeeRequest{
		Name: "Aroha Ngata", Email: "aroha@example.com", Role: "Wizard", HireDate: "2024-02-01",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var created api.EmployeeDTO
	resp = doJSON(t, http.MethodPost, server.URL+"/api/employees", api.CreateEmployeeRequest{
		Name: "Aroha Ngata", Email: "aroha@example.com", Role: "Manager", HireDate: "2024-02-01",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, created.IsActive)
	assert.Equal(t, "Manager", created.Role)
}

// =============================================================================
// DASHBOARD
// =============================================================================

func TestDashboard_EndToEnd(t *testing.T) {
	// GIVEN: Two machines seeded through sales (200 @ split 50, 300 @ split 0)
	//        and expenses Rent 100+50, Fuel 25
	// THEN: total 500, operator 400, partner 100, expenses 175, profit 225

	server, _ := newTestServer(t)

	m1 := createTestMachine(t, server, 50)
	var m2 api.MachineDTO
	resp := doJSON(t, http.MethodPost, server.URL+"/api/machines", api.CreateMachineRequest{
		Location: "Wellington Station", Code: "WLG002", Partner: "Independent", Split: 0,
	}, &m2)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	doJSON(t, http.MethodPost, server.URL+"/api/machines/"+m1.ID+"/sales", api.RecordSaleRequest{Amount: 200}, nil)
	doJSON(t, http.MethodPost, server.URL+"/api/machines/"+m2.ID+"/sales", api.RecordSaleRequest{Amount: 300}, nil)

	doJSON(t, http.MethodPost, server.URL+"/api/expenses", api.CreateExpenseRequest{Category: "Rent", Amount: 100}, nil)
	doJSON(t, http.MethodPost, server.URL+"/api/expenses", api.CreateExpenseRequest{Category: "Rent", Amount: 50}, nil)
	doJSON(t, http.MethodPost, server.URL+"/api/expenses", api.CreateExpenseRequest{Category: "Fuel", Amount: 25}, nil)

	var dashboard api.DashboardDTO
	resp = doJSON(t, http.MethodGet, server.URL+"/api/dashboard", nil, &dashboard)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.InDelta(t, 500, dashboard.Summary.TotalRevenue, 1e-9)
	assert.InDelta(t, 400, dashboard.Summary.OperatorIncome, 1e-9)
	assert.InDelta(t, 100, dashboard.Summary.PartnerIncome, 1e-9)
	assert.InDelta(t, 175, dashboard.Summary.TotalExpenses, 1e-9)
	assert.InDelta(t, 225, dashboard.Summary.NetProfit, 1e-9)
	assert.InDelta(t, 60, dashboard.Summary.GSTOwed, 1e-9)
	assert.Equal(t, 2, dashboard.Summary.ActiveMachineCount)

	require.Len(t, dashboard.ExpensesByCategory, 2)
	assert.Equal(t, "Fuel", dashboard.ExpensesByCategory[0].Category)
	assert.InDelta(t, 25, dashboard.ExpensesByCategory[0].Total, 1e-9)
	assert.Equal(t, "Rent", dashboard.ExpensesByCategory[1].Category)
	assert.InDelta(t, 150, dashboard.ExpensesByCategory[1].Total, 1e-9)

	require.Len(t, dashboard.Machines, 2)
	for _, m := range dashboard.Machines {
		switch m.ID {
		case m1.ID:
			assert.InDelta(t, 40, m.SharePercent, 1e-9)
		case m2.ID:
			assert.InDelta(t, 60, m.SharePercent, 1e-9)
		}
	}

	assert.Len(t, dashboard.DailySales, 30)
	assert.Empty(t, dashboard.Warnings)
}

func TestDashboard_EmptyStateHasZeroPercentages(t *testing.T) {
	server, _ := newTestServer(t)

	var dashboard api.DashboardDTO
	resp := doJSON(t, http.MethodGet, server.URL+"/api/dashboard", nil, &dashboard)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Zero(t, dashboard.Summary.TotalRevenue)
	assert.Zero(t, dashboard.Summary.GSTOwed)
	assert.Equal(t, 0, dashboard.Summary.ActiveMachineCount)
	for _, b := range dashboard.DailySales {
		assert.Zero(t, b.HeightPct, "empty window must normalize to zero")
	}
}
