package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"registro/internal/core"
	"registro/internal/ledger"
	"registro/internal/store/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(":0", ledger.NewManager(memory.New(), nil), 1000)
	s.today = func() core.Date { return core.NewDate(2024, 6, 15) }
	t.Cleanup(func() {
		s.rateLimiter.stop()
		s.caches.Stop()
	})
	return s
}

func doRequest(s *Server, method, target, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestMissingUserHeader(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/transactions", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{"/healthz", "/readyz"} {
		rec := doRequest(s, http.MethodGet, target, "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, rec.Code)
		}
	}
}

func TestCreateAndListTransactions(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/transactions", "u1",
		`{"date":"2024-06-01","amount":"150","type":"income","category":"Stipendio"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created["id"] == "" {
		t.Fatalf("expected an id, got %s", rec.Body.String())
	}

	rec = doRequest(s, http.MethodGet, "/api/transactions", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Transactions) != 1 || list.Transactions[0].Category != "Stipendio" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list.Transactions[0].UserID != "u1" {
		t.Fatalf("owner not stamped: %+v", list.Transactions[0])
	}

	// Another user sees an empty ledger.
	rec = doRequest(s, http.MethodGet, "/api/transactions", "u2", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Transactions) != 0 {
		t.Fatalf("ledgers must be scoped per user: %+v", list)
	}
}

func TestCreateValidationFailure(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"negative amount", `{"date":"2024-06-01","amount":"-5","type":"expense","category":"Spesa"}`, http.StatusUnprocessableEntity},
		{"bad type", `{"date":"2024-06-01","amount":"5","type":"transfer","category":"Spesa"}`, http.StatusUnprocessableEntity},
		{"empty category", `{"date":"2024-06-01","amount":"5","type":"expense","category":""}`, http.StatusUnprocessableEntity},
		{"garbage body", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/api/transactions", "u1", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/transactions", "u1",
		`{"date":"2024-06-01","amount":"20","type":"expense","category":"Spesa"}`)
	var created map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	id := created["id"]

	rec = doRequest(s, http.MethodPut, "/api/transactions/"+id, "u1",
		`{"date":"2024-06-02","amount":"25","type":"expense","category":"Trasporti"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodGet, "/api/transactions", "u1", "")
	var list listResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list.Transactions) != 1 || list.Transactions[0].Category != "Trasporti" {
		t.Fatalf("update not applied: %+v", list)
	}

	rec = doRequest(s, http.MethodDelete, "/api/transactions/"+id, "u1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = doRequest(s, http.MethodDelete, "/api/transactions/"+id, "u1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}

	rec = doRequest(s, http.MethodPut, "/api/transactions/missing", "u1",
		`{"date":"2024-06-02","amount":"25","type":"expense","category":"Trasporti"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("update missing: expected 404, got %d", rec.Code)
	}
}

func TestSummary(t *testing.T) {
	s := newTestServer(t)

	seed := []string{
		`{"date":"2024-06-01","amount":"150","type":"income","category":"Stipendio"}`,
		`{"date":"2024-06-10","amount":"40","type":"expense","category":"Spesa"}`,
		`{"date":"2023-01-10","amount":"999","type":"expense","category":"Vecchia"}`,
	}
	for _, body := range seed {
		if rec := doRequest(s, http.MethodPost, "/api/transactions", "u1", body); rec.Code != http.StatusCreated {
			t.Fatalf("seed failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	// Whole ledger.
	rec := doRequest(s, http.MethodGet, "/api/summary?period=all", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var all summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if all.Totals.Income.String() != "150" || all.Totals.Expense.String() != "1039" {
		t.Fatalf("unexpected totals: %+v", all.Totals)
	}

	// Last month relative to the injected today (2024-06-15) excludes
	// the 2023 record.
	rec = doRequest(s, http.MethodGet, "/api/summary?period=1M", "u1", "")
	var month summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &month); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if month.Totals.Expense.String() != "40" || month.Totals.Balance.String() != "110" {
		t.Fatalf("unexpected filtered totals: %+v", month.Totals)
	}
	if len(month.Trend) != 1 || month.Trend[0].Label != "giugno 2024" {
		t.Fatalf("unexpected trend: %+v", month.Trend)
	}
	if len(month.Categories.Expense) != 1 || month.Categories.Expense[0].Category != "Spesa" {
		t.Fatalf("unexpected breakdown: %+v", month.Categories)
	}

	// Custom range.
	rec = doRequest(s, http.MethodGet, "/api/summary?period=custom&start=2023-01-01&end=2023-12-31", "u1", "")
	var custom summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &custom); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if custom.Totals.Expense.String() != "999" {
		t.Fatalf("unexpected custom totals: %+v", custom.Totals)
	}
}

func TestSummaryCacheInvalidatedByMutation(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/api/transactions", "u1",
		`{"date":"2024-06-01","amount":"10","type":"expense","category":"Spesa"}`)

	rec := doRequest(s, http.MethodGet, "/api/summary?period=all", "u1", "")
	var first summaryResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &first)
	if first.Totals.Expense.String() != "10" {
		t.Fatalf("unexpected totals: %+v", first.Totals)
	}

	// Warm hit for the same key.
	rec = doRequest(s, http.MethodGet, "/api/summary?period=all", "u1", "")
	var warm summaryResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &warm)
	if warm.Totals.Expense.String() != "10" {
		t.Fatalf("cached summary mismatch: %+v", warm.Totals)
	}

	// A write must not leave a stale summary behind.
	doRequest(s, http.MethodPost, "/api/transactions", "u1",
		`{"date":"2024-06-02","amount":"5","type":"expense","category":"Spesa"}`)

	rec = doRequest(s, http.MethodGet, "/api/summary?period=all", "u1", "")
	var after summaryResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &after)
	if after.Totals.Expense.String() != "15" {
		t.Fatalf("summary served stale data after mutation: %+v", after.Totals)
	}
}

func TestSummaryBadParams(t *testing.T) {
	s := newTestServer(t)

	if rec := doRequest(s, http.MethodGet, "/api/summary?period=2W", "u1", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown period: expected 400, got %d", rec.Code)
	}
	if rec := doRequest(s, http.MethodGet, "/api/summary?period=custom", "u1", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("custom without dates: expected 400, got %d", rec.Code)
	}
}

func TestExport(t *testing.T) {
	s := newTestServer(t)

	seed := []string{
		`{"date":"2024-06-01","amount":"1234.56","type":"income","category":"Stipendio","notes":"giugno"}`,
		`{"date":"2023-01-10","amount":"10","type":"expense","category":"Vecchia"}`,
	}
	for _, body := range seed {
		if rec := doRequest(s, http.MethodPost, "/api/transactions", "u1", body); rec.Code != http.StatusCreated {
			t.Fatalf("seed failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec := doRequest(s, http.MethodGet, "/api/export", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "transazioni_complete_20240615.csv") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "\uFEFF") {
		t.Fatalf("missing BOM")
	}
	if !strings.Contains(body, "01/06/2024;Entrata;Stipendio;1234,56;giugno") {
		t.Fatalf("missing row in export:\n%s", body)
	}

	// Bounded export keeps only the rows in range and names the file
	// after the range.
	rec = doRequest(s, http.MethodGet, "/api/export?start=2023-01-01&end=2023-12-31", "u1", "")
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "transazioni_2023-01-01_2023-12-31.csv") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	body = rec.Body.String()
	if strings.Contains(body, "Stipendio") || !strings.Contains(body, "Vecchia") {
		t.Fatalf("range not applied:\n%s", body)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	s := NewServer(":0", ledger.NewManager(memory.New(), nil), 1)
	s.today = func() core.Date { return core.NewDate(2024, 6, 15) }
	t.Cleanup(func() {
		s.rateLimiter.stop()
		s.caches.Stop()
	})

	body := `{"date":"2024-06-01","amount":"1","type":"expense","category":"Spesa"}`
	if rec := doRequest(s, http.MethodPost, "/api/transactions", "u1", body); rec.Code != http.StatusCreated {
		t.Fatalf("first request: expected 201, got %d", rec.Code)
	}
	if rec := doRequest(s, http.MethodPost, "/api/transactions", "u1", body); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec.Code)
	}
	// Reads stay unthrottled.
	if rec := doRequest(s, http.MethodGet, "/api/transactions", "u1", ""); rec.Code != http.StatusOK {
		t.Fatalf("read: expected 200, got %d", rec.Code)
	}
}
