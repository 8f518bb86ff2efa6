package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"kesef/internal/app"
	"kesef/internal/core"
	"kesef/internal/view"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	n := 0
	store := app.NewStore(app.Initial(core.Dashboard, core.Light), app.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("tx-%d", n)
	}))
	renderer, err := view.NewRenderer(nil)
	require.NoError(t, err)

	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 1000
	}
	srv := NewServer(":0", store, renderer, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(srv, req)
}

func addTx(srv *Server, desc, amount, kind, category string) *httptest.ResponseRecorder {
	return postForm(srv, "/transactions", url.Values{
		"description": {desc},
		"amount":      {amount},
		"type":        {kind},
		"category":    {category},
	})
}

func summary(t *testing.T, srv *Server) StateResponse {
	t.Helper()
	rr := do(srv, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp StateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "הוספת תנועה חדשה")
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	for _, path := range []string{"/healthz", "/readyz", "/static/style.css"} {
		rr := do(srv, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	rr = do(srv, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
}

func TestAddExpenseScenario(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := addTx(srv, "Rent", "1000", "expense", "housing")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	s := summary(t, srv)
	assert.Equal(t, "-1000", s.Balance)
	assert.Equal(t, "1000", s.Expenses)
	assert.Equal(t, "0", s.Income)
	require.Len(t, s.Transactions, 1)
	assert.Equal(t, "tx-1", s.Transactions[0].ID)
	assert.Equal(t, "housing", s.Transactions[0].Category)
	assert.Equal(t, "דיור", s.Transactions[0].CategoryLabel)
}

func TestSalaryThenRent(t *testing.T) {
	srv := newTestServer(t, Options{})
	addTx(srv, "Salary", "5000", "income", "general")
	addTx(srv, "Rent", "1000", "expense", "housing")

	s := summary(t, srv)
	assert.Equal(t, "4000", s.Balance)
	assert.Len(t, s.Trend, 6)

	page := do(srv, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	assert.Contains(t, page, "₪4,000")
	assert.Contains(t, page, "Salary")
}

func TestIncompleteSubmitIsSilentNoop(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, f := range []url.Values{
		{"description": {""}, "amount": {"10"}},
		{"description": {"Lunch"}, "amount": {""}},
		{},
	} {
		rr := postForm(srv, "/transactions", f)
		assert.Equal(t, http.StatusSeeOther, rr.Code)
	}
	assert.Equal(t, 0, summary(t, srv).Count)

	// the typed description is shown again for correction
	addTx(srv, "Half typed", "", "income", "food")
	page := do(srv, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	assert.Contains(t, page, `value="Half typed"`)
}

func TestNonNumericAmountIsRecorded(t *testing.T) {
	srv := newTestServer(t, Options{})
	addTx(srv, "Typo", "abc", "expense", "general")

	s := summary(t, srv)
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, "NaN", s.Balance)
	assert.Equal(t, "NaN", s.Transactions[0].Amount)
}

func TestDelete(t *testing.T) {
	srv := newTestServer(t, Options{})
	addTx(srv, "Coffee", "12", "expense", "food")

	rr := postForm(srv, "/transactions/tx-1/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	s := summary(t, srv)
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, "0", s.Balance)

	// deleting again is a no-op
	req := httptest.NewRequest(http.MethodDelete, "/transactions/tx-1", nil)
	req.Header.Set("Accept", "application/json")
	rr = do(srv, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp StateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestJSONSubmit(t *testing.T) {
	srv := newTestServer(t, Options{})

	body, _ := json.Marshal(SubmitRequest{Description: "Salary", Amount: "5000", Type: "income", Category: "savings"})
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := do(srv, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp StateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "5000", resp.Income)
	assert.Equal(t, "savings", resp.Transactions[0].Category)

	req = httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rr = do(srv, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestViewThemeAndReset(t *testing.T) {
	srv := newTestServer(t, Options{})
	addTx(srv, "Salary", "600", "income", "general")

	rr := postForm(srv, "/view/analytics", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	page := do(srv, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	assert.Contains(t, page, "<polyline")
	assert.NotContains(t, page, "הוספת תנועה חדשה")

	rr = postForm(srv, "/view/settings", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	postForm(srv, "/theme", nil)
	assert.Equal(t, "dark", summary(t, srv).Theme)

	postForm(srv, "/reset", nil)
	s := summary(t, srv)
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, "dashboard", s.View)
	assert.Equal(t, "light", s.Theme)
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, Options{})
	addTx(srv, "Rent", "1000", "expense", "housing")

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment")

	f, err := excelize.OpenReader(rr.Body)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Transactions", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Rent", v)
}

func TestRateLimitOnMutations(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitPerMinute: 2})

	assert.Equal(t, http.StatusSeeOther, postForm(srv, "/theme", nil).Code)
	assert.Equal(t, http.StatusSeeOther, postForm(srv, "/theme", nil).Code)
	rr := postForm(srv, "/theme", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// reads are not limited
	assert.Equal(t, http.StatusOK, do(srv, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestUnmatchedRoutesKeepMiddleware(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "script-src 'none'")

	rr = do(srv, httptest.NewRequest(http.MethodGet, "/theme", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "light", summary(t, srv).Theme)
}

func TestForwardedHeadersIgnoredByDefault(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitPerMinute: 1})

	for i, want := range []int{http.StatusSeeOther, http.StatusTooManyRequests, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/theme", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))
		assert.Equal(t, want, do(srv, req).Code, "request %d", i)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Real-IP", "10.0.0.2")
	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")

	assert.Equal(t, "10.0.0.1", clientIPFunc(false)(req))
	assert.Equal(t, "10.0.0.4", clientIPFunc(true)(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "10.0.0.2", clientIPFunc(true)(req))

	req.Header.Del("X-Real-IP")
	assert.Equal(t, "10.0.0.1", clientIPFunc(true)(req))
}

func TestOutOfRangeAmount(t *testing.T) {
	srv := newTestServer(t, Options{})
	addTx(srv, "Huge", "1e10000000", "income", "general")

	s := summary(t, srv)
	assert.Equal(t, "Infinity", s.Balance)
	assert.Equal(t, "Infinity", s.Income)
	assert.Equal(t, "0", s.Expenses)

	page := do(srv, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	assert.Contains(t, page, "₪∞")

	postForm(srv, "/view/analytics", nil)
	rr := do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "NaN")

	rr = do(srv, httptest.NewRequest(http.MethodGet, "/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	f, err := excelize.OpenReader(rr.Body)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Transactions", "F2")
	require.NoError(t, err)
	assert.Equal(t, "∞", v)
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a b", sanitizeInput("a\x00 b"))
	assert.Equal(t, " x ", sanitizeInput(" x "))
}
