package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ashmitsharp/trackmoney-api/internal/logger"
	"github.com/ashmitsharp/trackmoney-api/internal/middleware"
	"github.com/ashmitsharp/trackmoney-api/internal/services"
	"github.com/ashmitsharp/trackmoney-api/internal/store"
	"github.com/ashmitsharp/trackmoney-api/internal/telemetry"
	"github.com/ashmitsharp/trackmoney-api/internal/utils"
)

const testUserHeader = "X-Test-User"

// fakeAuth simulates the auth middleware setting user_id
func fakeAuth(c fiber.Ctx) error {
	userID := c.Get(testUserHeader)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization token"})
	}
	c.Locals(middleware.UserIDKey, userID)
	return c.Next()
}

type recordingEmitter struct {
	events []telemetry.Event
}

func (r *recordingEmitter) Emit(ctx context.Context, e telemetry.Event) {
	r.events = append(r.events, e)
}

type testEnv struct {
	app    *fiber.App
	svc    *services.LedgerService
	store  *store.MemoryStore
	events *recordingEmitter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := store.NewMemoryStore()
	events := &recordingEmitter{}
	svc := services.NewLedgerService(st, events, logger.Discard(), time.Second)

	app := fiber.New(fiber.Config{ErrorHandler: utils.NewErrorHandler(false, logger.Discard())})
	Register(app, svc, services.NewExporter(), services.MustNewCategorizer(services.DefaultRules()), fakeAuth)

	return &testEnv{app: app, svc: svc, store: st, events: events}
}

func (e *testEnv) do(t *testing.T, method, path, userID string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(testUserHeader, userID)
	}

	resp, err := e.app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.svc.Wait(ctx))
}

type snapshotBody struct {
	Transactions []struct {
		ID       string `json:"id"`
		Category string `json:"category"`
		Amount   string `json:"amount"`
	} `json:"transactions"`
	Balances struct {
		General        string            `json:"generalBalance"`
		Debt           string            `json:"debtBalance"`
		Savings        string            `json:"savingsBalance"`
		CategoryTotals map[string]string `json:"categoryTotals"`
	} `json:"balances"`
	Debt struct {
		Mode     string `json:"mode"`
		Baseline string `json:"baseline"`
	} `json:"debt"`
	Savings struct {
		Mode string `json:"mode"`
	} `json:"savings"`
	Breakdown []struct {
		Category string `json:"category"`
		Percent  string `json:"percent"`
	} `json:"breakdown"`
}

func decodeSnapshot(t *testing.T, data []byte) snapshotBody {
	t.Helper()
	var snap snapshotBody
	require.NoError(t, json.Unmarshal(data, &snap), string(data))
	return snap
}

func TestPublicRoutes(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "GET", "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "trackmoney-api")

	resp, body = env.do(t, "GET", "/v1/ping", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "pong")

	resp, body = env.do(t, "GET", "/v1/categories", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cats CategoriesResponse
	require.NoError(t, json.Unmarshal(body, &cats))
	assert.Len(t, cats.Expense, 11)
	assert.Equal(t, []string{"Salary", "Freelance", "Investments", "Gifts", "Other"}, cats.Income)
	assert.Equal(t, []string{"Debt Payment", "Loan Payment", "Credit Card Payment"}, cats.Debt)
	assert.Equal(t, []string{"Savings", "Retirement", "Emergency Fund"}, cats.Savings)
}

func TestSuggestCategory(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name         string
		query        string
		wantCode     int
		wantCategory string
		wantMatched  bool
	}{
		{name: "expense by default", query: "?description=Netflix%20monthly", wantCode: 200, wantCategory: "Subscriptions", wantMatched: true},
		{name: "income", query: "?description=ACME%20payroll&type=INCOME", wantCode: 200, wantCategory: "Salary", wantMatched: true},
		{name: "no match", query: "?description=xyz&type=income", wantCode: 200, wantCategory: "Other"},
		{name: "missing description", query: "?type=expense", wantCode: 400},
		{name: "bad type", query: "?description=rent&type=loan", wantCode: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, "GET", "/v1/categories/suggest"+tt.query, "", nil)
			require.Equal(t, tt.wantCode, resp.StatusCode, string(body))
			if tt.wantCode != 200 {
				return
			}
			var got services.Suggestion
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantMatched, got.Matched)
		})
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	routes := []struct {
		method string
		path   string
	}{
		{"GET", "/v1/ledger"},
		{"GET", "/v1/summary"},
		{"GET", "/v1/transactions"},
		{"POST", "/v1/transactions"},
		{"POST", "/v1/transactions/import"},
		{"DELETE", "/v1/transactions/abc"},
		{"PUT", "/v1/balances/debt"},
		{"DELETE", "/v1/balances/debt"},
		{"GET", "/v1/charts"},
		{"POST", "/v1/charts/visibility"},
		{"GET", "/v1/export"},
		{"POST", "/v1/session"},
		{"DELETE", "/v1/session"},
		{"GET", "/v1/user"},
	}

	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			resp, _ := env.do(t, r.method, r.path, "", nil)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestRequireUser_WithoutMiddleware(t *testing.T) {
	st := store.NewMemoryStore()
	svc := services.NewLedgerService(st, nil, logger.Discard(), time.Second)

	app := fiber.New(fiber.Config{ErrorHandler: utils.NewErrorHandler(false, logger.Discard())})
	app.Get("/ledger", NewLedgerHandler(svc).GetLedger)

	resp, err := app.Test(httptest.NewRequest("GET", "/ledger", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAddTransaction(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{
		"description": "Weekly shop",
		"amount":      50,
		"type":        "expense",
		"category":    "Groceries",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	var created struct {
		Transaction struct {
			ID       string `json:"id"`
			Date     string `json:"date"`
			FullDate string `json:"fullDate"`
		} `json:"transaction"`
		Ledger json.RawMessage `json:"ledger"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.Transaction.ID)
	assert.NotEmpty(t, created.Transaction.Date)
	assert.NotEmpty(t, created.Transaction.FullDate)

	resp, body = env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{
		"description": "Pay day",
		"amount":      "200",
		"type":        "income",
		"category":    "Salary",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	resp, body = env.do(t, "GET", "/v1/ledger", "user_1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	snap := decodeSnapshot(t, body)

	require.Len(t, snap.Transactions, 2)
	assert.Equal(t, created.Transaction.ID, snap.Transactions[0].ID)
	assert.Equal(t, "150", snap.Balances.General)
	assert.Equal(t, "0", snap.Balances.Debt)
	assert.Equal(t, "0", snap.Balances.Savings)
	assert.Equal(t, map[string]string{"Groceries": "50"}, snap.Balances.CategoryTotals)
	require.Len(t, snap.Breakdown, 1)
	assert.Equal(t, "100", snap.Breakdown[0].Percent)

	env.wait(t)
	stored, err := env.store.Load(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Len(t, stored.Ledger.Transactions, 2)
}

func TestAddTransaction_Invalid(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name      string
		body      any
		wantField string
	}{
		{name: "missing description", body: map[string]any{"amount": 5, "type": "expense"}, wantField: "description"},
		{name: "missing amount", body: map[string]any{"description": "x", "type": "expense"}, wantField: "amount"},
		{name: "zero amount", body: map[string]any{"description": "x", "amount": 0, "type": "expense"}, wantField: "amount"},
		{name: "bad type", body: map[string]any{"description": "x", "amount": 5, "type": "loan"}, wantField: "type"},
		{name: "huge amount", body: map[string]any{"description": "x", "amount": "1e20000000", "type": "income"}, wantField: "amount"},
		{name: "amount above maximum", body: map[string]any{"description": "x", "amount": 1e13, "type": "income"}, wantField: "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, "POST", "/v1/transactions", "user_1", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			var apiErr struct {
				Code    string `json:"code"`
				Details []struct {
					Field string `json:"field"`
				} `json:"details"`
			}
			require.NoError(t, json.Unmarshal(body, &apiErr))
			assert.Equal(t, "BAD_REQUEST", apiErr.Code)
			require.NotEmpty(t, apiErr.Details)
			assert.Equal(t, tt.wantField, apiErr.Details[0].Field)
		})
	}

	resp, _ := env.do(t, "GET", "/v1/transactions", "user_1", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAddTransaction_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("POST", "/v1/transactions", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(testUserHeader, "user_1")

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetTransactions_Filter(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{"description": "a", "amount": 1, "type": "expense"})
	env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{"description": "b", "amount": 2, "type": "income"})
	env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{"description": "c", "amount": 3, "type": "expense"})

	tests := []struct {
		query     string
		wantTotal int
		wantCode  int
	}{
		{query: "", wantTotal: 3, wantCode: 200},
		{query: "?type=all", wantTotal: 3, wantCode: 200},
		{query: "?type=expense", wantTotal: 2, wantCode: 200},
		{query: "?type=income", wantTotal: 1, wantCode: 200},
		{query: "?type=loan", wantCode: 400},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, body := env.do(t, "GET", "/v1/transactions"+tt.query, "user_1", nil)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantCode != 200 {
				return
			}
			var got TransactionsResponse
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.wantTotal, got.Total)
			assert.Len(t, got.Transactions, tt.wantTotal)
		})
	}
}

func TestDeleteTransaction(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{
		"description": "Card", "amount": 40, "type": "expense", "category": "Credit Card Payment",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created AddTransactionResponse
	require.NoError(t, json.Unmarshal(body, &created))

	resp, body = env.do(t, "DELETE", "/v1/transactions/"+created.Transaction.ID, "user_1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	snap := decodeSnapshot(t, body)
	assert.Empty(t, snap.Transactions)
	assert.Equal(t, "0", snap.Balances.General)
	assert.Empty(t, snap.Breakdown)

	resp, _ = env.do(t, "DELETE", "/v1/transactions/"+created.Transaction.ID, "user_1", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeleteTransaction_OtherUser(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.do(t, "POST", "/v1/transactions", "user_a", map[string]any{
		"description": "Mine", "amount": 10, "type": "income",
	})
	var created AddTransactionResponse
	require.NoError(t, json.Unmarshal(body, &created))

	resp, _ := env.do(t, "DELETE", "/v1/transactions/"+created.Transaction.ID, "user_b", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	_, body = env.do(t, "GET", "/v1/ledger", "user_a", nil)
	assert.Len(t, decodeSnapshot(t, body).Transactions, 1)
}

func TestBalances(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "PUT", "/v1/balances/debt", "user_1", map[string]any{"value": 100})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	snap := decodeSnapshot(t, body)
	assert.Equal(t, "manual", snap.Debt.Mode)
	assert.Equal(t, "100", snap.Balances.Debt)

	env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{
		"description": "Loan", "amount": 50, "type": "expense", "category": "Debt Payment",
	})
	_, body = env.do(t, "GET", "/v1/ledger", "user_1", nil)
	snap = decodeSnapshot(t, body)
	assert.Equal(t, "50", snap.Balances.Debt)
	assert.Equal(t, "50", snap.Debt.Baseline)

	resp, body = env.do(t, "DELETE", "/v1/balances/debt", "user_1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	snap = decodeSnapshot(t, body)
	assert.Equal(t, "automatic", snap.Debt.Mode)
	assert.Equal(t, "50", snap.Balances.Debt)

	resp, body = env.do(t, "PUT", "/v1/balances/savings", "user_1", map[string]any{"value": "250.75"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	snap = decodeSnapshot(t, body)
	assert.Equal(t, "manual", snap.Savings.Mode)
	assert.Equal(t, "250.75", snap.Balances.Savings)

	var names []string
	for _, e := range env.events.events {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, telemetry.EventUpdateDebtBalance)
	assert.Contains(t, names, telemetry.EventUpdateSavingsBalance)
}

func TestBalances_Invalid(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{name: "unknown kind", method: "PUT", path: "/v1/balances/general", body: map[string]any{"value": 1}},
		{name: "reset unknown kind", method: "DELETE", path: "/v1/balances/cash"},
		{name: "missing value", method: "PUT", path: "/v1/balances/debt", body: map[string]any{}},
		{name: "negative value", method: "PUT", path: "/v1/balances/savings", body: map[string]any{"value": -10}},
		{name: "non numeric value", method: "PUT", path: "/v1/balances/debt", body: map[string]any{"value": "lots"}},
		{name: "huge value", method: "PUT", path: "/v1/balances/debt", body: map[string]any{"value": "1e20000000"}},
		{name: "sub cent value", method: "PUT", path: "/v1/balances/savings", body: map[string]any{"value": "1.005"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := env.do(t, tt.method, tt.path, "user_1", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestGetSummary(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{"description": "a", "amount": 10, "type": "expense", "category": "Misc"})
	env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{"description": "b", "amount": 30, "type": "expense", "category": "Groceries"})
	env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{"description": "c", "amount": 100, "type": "income", "category": "Salary"})

	resp, body := env.do(t, "GET", "/v1/summary", "user_1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var summary struct {
		KPIs struct {
			TotalIncome      string `json:"total_income"`
			TotalExpenses    string `json:"total_expenses"`
			GeneralBalance   string `json:"general_balance"`
			TransactionCount int    `json:"transaction_count"`
		} `json:"kpis"`
		DebtMode   string `json:"debt_mode"`
		Categories []struct {
			Category string `json:"category"`
			Percent  string `json:"percent"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(body, &summary))

	assert.Equal(t, "100", summary.KPIs.TotalIncome)
	assert.Equal(t, "40", summary.KPIs.TotalExpenses)
	assert.Equal(t, "60", summary.KPIs.GeneralBalance)
	assert.Equal(t, 3, summary.KPIs.TransactionCount)
	assert.Equal(t, "automatic", summary.DebtMode)
	require.Len(t, summary.Categories, 2)
	assert.Equal(t, "Groceries", summary.Categories[0].Category)
	assert.Equal(t, "75", summary.Categories[0].Percent)
	assert.Equal(t, "Misc", summary.Categories[1].Category)
	assert.Equal(t, "25", summary.Categories[1].Percent)
}

func TestCharts(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{"description": "a", "amount": 12, "type": "income", "category": "Freelance"})

	resp, body := env.do(t, "GET", "/v1/charts?type=income", "user_1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var ds struct {
		Title      string `json:"title"`
		HasData    bool   `json:"hasData"`
		Categories []struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"categories"`
		Monthly []struct {
			Key string `json:"key"`
		} `json:"monthly"`
	}
	require.NoError(t, json.Unmarshal(body, &ds))
	assert.Equal(t, "Monthly Income", ds.Title)
	assert.True(t, ds.HasData)
	require.Len(t, ds.Categories, 1)
	assert.Equal(t, "Freelance", ds.Categories[0].Key)
	assert.Len(t, ds.Monthly, 6)

	resp, body = env.do(t, "GET", "/v1/charts", "user_1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &ds))
	assert.Equal(t, "Monthly Expenses", ds.Title)
	assert.False(t, ds.HasData)

	resp, _ = env.do(t, "GET", "/v1/charts?type=loan", "user_1", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestChartsVisibility(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, "POST", "/v1/charts/visibility", "user_1", map[string]any{"visible": true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, telemetry.EventViewCharts, env.events.events[len(env.events.events)-1].Name)

	_, body := env.do(t, "GET", "/v1/ledger", "user_1", nil)
	var snap struct {
		ChartsVisible bool `json:"chartsVisible"`
	}
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.True(t, snap.ChartsVisible)

	resp, _ = env.do(t, "POST", "/v1/charts/visibility", "user_1", map[string]any{"visible": false})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, telemetry.EventHideCharts, env.events.events[len(env.events.events)-1].Name)

	resp, _ = env.do(t, "POST", "/v1/charts/visibility", "user_1", map[string]any{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{"description": "a", "amount": 10, "type": "expense", "category": "Misc"})

	resp, body := env.do(t, "GET", "/v1/export", "user_1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, services.XLSXContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment; filename=\"trackmoney-")

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(services.TransactionsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func (e *testEnv) upload(t *testing.T, path, userID, contentType string, body io.Reader) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest("POST", path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(testUserHeader, userID)

	resp, err := e.app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

type importBody struct {
	Format   string `json:"format"`
	Imported []struct {
		Category string `json:"category"`
		Type     string `json:"type"`
	} `json:"imported"`
	Skipped []services.RowError `json:"skipped"`
	Ledger  snapshotBody        `json:"ledger"`
}

func TestImportMultipartCSV(t *testing.T) {
	env := newTestEnv(t)

	statement := "Date,Description,Debit,Credit\n2024-03-01,NETFLIX,15.99,\n2024-03-02,ACME PAYROLL,,2500\n2024-03-03,Broken,,\n"

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "statement.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(statement))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, data := env.upload(t, "/v1/transactions/import", "user_1", w.FormDataContentType(), &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))

	var result importBody
	require.NoError(t, json.Unmarshal(data, &result), string(data))
	assert.Equal(t, "debit-credit", result.Format)
	require.Len(t, result.Imported, 2)
	assert.Equal(t, "Subscriptions", result.Imported[0].Category)
	assert.Equal(t, "Salary", result.Imported[1].Category)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 4, result.Skipped[0].Row)
	assert.Len(t, result.Ledger.Transactions, 2)
}

func TestImportExportedWorkbook(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{"description": "Rent", "amount": 900, "type": "expense", "category": "Bills/Utilities"})
	env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{"description": "Salary", "amount": "2000.50", "type": "income", "category": "Salary"})

	resp, workbook := env.do(t, "GET", "/v1/export", "user_1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, data := env.upload(t, "/v1/transactions/import", "user_2", services.XLSXContentType, bytes.NewReader(workbook))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))

	var result importBody
	require.NoError(t, json.Unmarshal(data, &result), string(data))
	assert.Equal(t, "trackmoney", result.Format)
	assert.Empty(t, result.Skipped)
	require.Len(t, result.Imported, 2)
	assert.Equal(t, "Bills/Utilities", result.Imported[0].Category)
	assert.Equal(t, "income", result.Imported[1].Type)
}

func TestImportRejectsBadFiles(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{name: "empty body", contentType: "text/csv", body: ""},
		{name: "unknown columns", contentType: "text/csv", body: "Foo,Bar\n1,2\n"},
		{name: "broken workbook", contentType: services.XLSXContentType, body: "not a zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := env.upload(t, "/v1/transactions/import", "user_1", tt.contentType, strings.NewReader(tt.body))
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, string(data))
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "POST", "/v1/internal/users", "", map[string]any{
		"clerk_user_id": "user_1",
		"email":         "asha@example.com",
		"full_name":     "Asha",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	resp, body = env.do(t, "POST", "/v1/session", "user_1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	var user struct {
		UserID  string `json:"user_id"`
		Profile struct {
			Name      string `json:"name"`
			Email     string `json:"email"`
			CreatedAt string `json:"createdAt"`
			LastLogin string `json:"lastLogin"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(body, &user))
	assert.Equal(t, "user_1", user.UserID)
	assert.Equal(t, "Asha", user.Profile.Name)
	assert.NotEmpty(t, user.Profile.CreatedAt)
	assert.NotEmpty(t, user.Profile.LastLogin)

	env.do(t, "POST", "/v1/transactions", "user_1", map[string]any{"description": "a", "amount": 10, "type": "income"})
	env.wait(t)

	resp, _ = env.do(t, "DELETE", "/v1/session", "user_1", nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	// signing back in reloads the stored ledger
	resp, body = env.do(t, "GET", "/v1/user", "user_1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &user))
	assert.Equal(t, "asha@example.com", user.Profile.Email)

	_, body = env.do(t, "GET", "/v1/ledger", "user_1", nil)
	assert.Len(t, decodeSnapshot(t, body).Transactions, 1)

	var names []string
	for _, e := range env.events.events {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{
		telemetry.EventSignUp,
		telemetry.EventLogin,
		telemetry.EventAddTransaction,
		telemetry.EventLogout,
	}, names)
}

func TestCreateUser_Invalid(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
	}{
		{name: "missing id", body: map[string]any{"email": "a@b.c"}},
		{name: "missing email", body: map[string]any{"clerk_user_id": "user_1"}},
		{name: "unsafe id", body: map[string]any{"clerk_user_id": "../etc", "email": "a@b.c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := env.do(t, "POST", "/v1/internal/users", "", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}
