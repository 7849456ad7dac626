package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"daftar/internal/auth"
	"daftar/internal/core"
	"daftar/internal/log"
	"daftar/internal/services"
	"daftar/internal/storage"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// 2023-07-30 is 1402/5/8 in the Persian calendar.
var testNow = time.Date(2023, 7, 30, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "daftar.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	codec := auth.NewCodec("test-secret")
	users := services.NewUserService(repo, codec)
	ledgers := services.NewLedgerService(repo, nil, fixedClock{t: testNow})

	srv := NewServer(":0", users, ledgers, log.New(log.DefaultConfig()))
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set(AuthHeader, token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, raw
}

func registerAndLogin(t *testing.T, baseURL string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, baseURL+"/api/users", "", map[string]string{
		"fullName": "Sara Ahmadi",
		"email":    "sara@example.com",
		"password": "s3cret-pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status %d: %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, baseURL+"/api/login", "", map[string]string{
		"email":    "sara@example.com",
		"password": "s3cret-pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d: %s", resp.StatusCode, body)
	}
	headerToken := resp.Header.Get(AuthHeader)
	if headerToken == "" {
		t.Fatal("login response missing x-auth header")
	}
	if string(body) != headerToken {
		t.Fatalf("login body %q should equal x-auth header %q", body, headerToken)
	}
	return headerToken
}

func TestRegisterResponseShape(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/users", "", map[string]string{
		"fullName": "Sara Ahmadi",
		"email":    "sara@example.com",
		"password": "s3cret-pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}

	var user map[string]any
	if err := json.Unmarshal(body, &user); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, field := range []string{"id", "fullName", "email"} {
		if _, ok := user[field]; !ok {
			t.Errorf("response missing %q: %s", field, body)
		}
	}
	for _, hidden := range []string{"password", "passwordDigest", "tokens"} {
		if _, ok := user[hidden]; ok {
			t.Errorf("response leaks %q: %s", hidden, body)
		}
	}
}

func TestRegisterValidationAndDuplicate(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/users", "", map[string]string{
		"fullName": "Al",
		"email":    "al@example.com",
		"password": "s3cret-pass",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("short name: status %d, want 400", resp.StatusCode)
	}
	var errResp struct{ Error string }
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		t.Errorf("failure body should be {Error}: %s", body)
	}

	good := map[string]string{"fullName": "Sara Ahmadi", "email": "sara@example.com", "password": "s3cret-pass"}
	if resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/users", "", good); resp.StatusCode != http.StatusOK {
		t.Fatalf("register status %d: %s", resp.StatusCode, body)
	}
	if resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/users", "", good); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate email: status %d, want 400", resp.StatusCode)
	}
}

func TestLoginFailure(t *testing.T) {
	ts := newTestServer(t)
	registerAndLogin(t, ts.URL)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/login", "", map[string]string{
		"email":    "sara@example.com",
		"password": "wrong-pass",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("wrong password: status %d, want 400", resp.StatusCode)
	}
	var errResp struct{ Error string }
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		t.Errorf("failure body should be {Error}: %s", body)
	}
}

func TestLedgerRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/payment"},
		{http.MethodGet, "/api/payment"},
		{http.MethodGet, "/api/paymentSum"},
		{http.MethodGet, "/api/receive"},
		{http.MethodDelete, "/api/logout"},
	}
	for _, rt := range routes {
		resp, _ := doJSON(t, rt.method, ts.URL+rt.path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status %d, want 401", rt.method, rt.path, resp.StatusCode)
		}
	}

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/payment", "garbage-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("garbage token: status %d, want 401", resp.StatusCode)
	}
}

func TestLedgerLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	// Append two payments; dates come from the fixed clock.
	for _, info := range []string{"rent", "groceries"} {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/payment", token,
			map[string]any{"info": info, "amount": 1000})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("append %q: status %d: %s", info, resp.StatusCode, body)
		}
		var ack struct{ Message string }
		if err := json.Unmarshal(body, &ack); err != nil || ack.Message == "" {
			t.Errorf("append ack should be {Message}: %s", body)
		}
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/payment", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d: %s", resp.StatusCode, body)
	}
	var entries []core.LedgerEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(entries) != 2 || entries[0].Info != "rent" || entries[1].Info != "groceries" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Date != "1402/5/08" {
		t.Errorf("entry date = %q, want 1402/5/08", entries[0].Date)
	}

	// The receive ledger is untouched by payment writes.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/receive", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list receive: status %d", resp.StatusCode)
	}
	var receipts []core.LedgerEntry
	if err := json.Unmarshal(body, &receipts); err != nil {
		t.Fatalf("unmarshal receive list: %v", err)
	}
	if len(receipts) != 0 {
		t.Errorf("receive ledger = %+v, want empty", receipts)
	}

	// Update the first entry in place.
	resp, body = doJSON(t, http.MethodPatch, ts.URL+"/api/payment", token, map[string]any{
		"id":     entries[0].ID,
		"info":   "rent (corrected)",
		"amount": 1200,
		"date":   entries[0].Date,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d: %s", resp.StatusCode, body)
	}

	// Delete the second; the response is the remaining ledger.
	resp, body = doJSON(t, http.MethodDelete, ts.URL+"/api/payment/"+entries[1].ID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: status %d: %s", resp.StatusCode, body)
	}
	var remaining []core.LedgerEntry
	if err := json.Unmarshal(body, &remaining); err != nil {
		t.Fatalf("unmarshal remaining: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Info != "rent (corrected)" {
		t.Errorf("remaining = %+v", remaining)
	}

	// Deleting an absent id still succeeds and returns the unchanged ledger.
	resp, body = doJSON(t, http.MethodDelete, ts.URL+"/api/payment/no-such-id", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete absent id: status %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &remaining); err != nil || len(remaining) != 1 {
		t.Errorf("noop delete remaining = %s", body)
	}
}

func TestUpdateAbsentEntryIs404(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	resp, _ := doJSON(t, http.MethodPatch, ts.URL+"/api/payment", token, map[string]any{
		"id": "no-such-id", "info": "x", "amount": 5, "date": "1402/1/01",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("update absent entry: status %d, want 404", resp.StatusCode)
	}
}

func TestPaymentSum(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	for _, amount := range []float64{100, 50.5} {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/payment", token,
			map[string]any{"info": "entry", "amount": amount})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("append: status %d: %s", resp.StatusCode, body)
		}
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/paymentSum", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sum: status %d: %s", resp.StatusCode, body)
	}
	var sum struct{ Sum string }
	if err := json.Unmarshal(body, &sum); err != nil {
		t.Fatalf("unmarshal sum: %v", err)
	}
	if sum.Sum != "150.5" {
		t.Errorf("Sum = %q, want \"150.5\" (a string, not a number)", sum.Sum)
	}
}

func TestReceiveSumIsIndependent(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/payment", token,
		map[string]any{"info": "rent", "amount": 1000})
	if resp.StatusCode != http.StatusOK {
		t.Fatal("append payment failed")
	}
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/receive", token,
		map[string]any{"info": "salary", "amount": 90000})
	if resp.StatusCode != http.StatusOK {
		t.Fatal("append receive failed")
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/receiveSum", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("receiveSum: status %d: %s", resp.StatusCode, body)
	}
	var sum struct{ Sum string }
	if err := json.Unmarshal(body, &sum); err != nil {
		t.Fatalf("unmarshal sum: %v", err)
	}
	if sum.Sum != "90000" {
		t.Errorf("receive Sum = %q, want \"90000\"", sum.Sum)
	}
}

func TestListByDate(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/payment", token,
		map[string]any{"info": "today entry", "amount": 10})
	if resp.StatusCode != http.StatusOK {
		t.Fatal("append failed")
	}

	// The entry was stamped 1402/5/08; the route takes dashes.
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/payment/1402-5-08", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list by date: status %d: %s", resp.StatusCode, body)
	}
	var entries []core.LedgerEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(entries) != 1 || entries[0].Info != "today entry" {
		t.Errorf("entries = %+v", entries)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/payment/1402-6-01", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list by other date: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &entries); err != nil || len(entries) != 0 {
		t.Errorf("no-match day should return an empty array: %s", body)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	resp, body := doJSON(t, http.MethodDelete, ts.URL+"/api/logout", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: status %d: %s", resp.StatusCode, body)
	}
	var ack struct{ Message string }
	if err := json.Unmarshal(body, &ack); err != nil || ack.Message == "" {
		t.Errorf("logout ack should be {Message}: %s", body)
	}

	// The token still has a valid signature but is no longer live.
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/payment", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("revoked token: status %d, want 401", resp.StatusCode)
	}
}

func TestAppendValidationFailure(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "empty info", body: map[string]any{"info": "", "amount": 10}},
		{name: "zero amount", body: map[string]any{"info": "rent", "amount": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/payment", token, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status %d, want 400: %s", resp.StatusCode, body)
			}
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: status %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestMultiDeviceSessions(t *testing.T) {
	ts := newTestServer(t)
	first := registerAndLogin(t, ts.URL)

	// Second login issues a distinct token; both stay usable.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/login", "", map[string]string{
		"email":    "sara@example.com",
		"password": "s3cret-pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second login: status %d", resp.StatusCode)
	}
	second := string(body)
	if second == first {
		t.Fatal("each login should issue a distinct token")
	}

	for i, token := range []string{first, second} {
		resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/payment", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("token %d rejected: status %d", i, resp.StatusCode)
		}
	}

	// Logging out the first device leaves the second alone.
	if resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/api/logout", first, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: status %d", resp.StatusCode)
	}
	if resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/payment", second, nil); resp.StatusCode != http.StatusOK {
		t.Errorf("surviving device rejected: status %d", resp.StatusCode)
	}
}

func TestMalformedBodyIs400(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/users", bytes.NewReader([]byte("{not json")))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body: status %d, want 400", resp.StatusCode)
	}
}

func TestDistinctTokensPerLogin(t *testing.T) {
	ts := newTestServer(t)
	registerAndLogin(t, ts.URL)

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/login", "", map[string]string{
			"email":    "sara@example.com",
			"password": "s3cret-pass",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("login %d: status %d", i, resp.StatusCode)
		}
		tok := string(body)
		if seen[tok] {
			t.Fatalf("login %d reissued token %s", i, tok)
		}
		seen[tok] = true
	}
}
