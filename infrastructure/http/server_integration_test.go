package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"depalletconsole/frontend/login"
	"depalletconsole/infrastructure/backend"
	"depalletconsole/infrastructure/cache"
	"depalletconsole/infrastructure/depalletizer"
	"depalletconsole/infrastructure/eventlog"
	"depalletconsole/infrastructure/sqlite"
	"depalletconsole/infrastructure/workflow"
)

const (
	testOperator = "operator"
	testPassword = "Depallet2026"
)

// fakeBackend stands in for the order backend the console drives.
type fakeBackend struct {
	mu          sync.Mutex
	statuses    map[string]string
	dispatches  []backend.DispatchRequest
	dispatchErr int
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/orders":
		rows := []map[string]any{}
		for _, id := range []string{"101", "102"} {
			if status, ok := f.statuses[id]; ok {
				rows = append(rows, map[string]any{"id": id, "status": status, "company": "Umbro", "item_name": "Jersey", "quantity": 3})
			}
		}
		_ = json.NewEncoder(w).Encode(rows)
	case r.Method == http.MethodGet && r.URL.Path == "/api/products":
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"item_code": "UM-01", "product_name": "Home jersey", "brand": "Umbro", "stock": 1},
			{"item_code": "AD-02", "product_name": "Away jersey", "brand": "Adidas", "stock": 12},
		})
	case r.Method == http.MethodPost && r.URL.Path == "/api/order/update_status":
		var body struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.statuses[body.ID] = body.Status
	case r.Method == http.MethodPost && r.URL.Path == "/api/order/delete":
		var body struct {
			ID string `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		delete(f.statuses, body.ID)
	case r.Method == http.MethodPost && r.URL.Path == "/api/depalletizer/start":
		var req backend.DispatchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.dispatches = append(f.dispatches, req)
		if f.dispatchErr != 0 {
			w.WriteHeader(f.dispatchErr)
		}
	default:
		http.NotFound(w, r)
	}
}

type integrationEnv struct {
	server  *httptest.Server
	db      *sqlite.DB
	backend *fakeBackend
	events  *eventlog.Log
}

func setupIntegrationServer(t *testing.T) (*integrationEnv, *http.Client) {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "server-integration.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := sqlite.ApplyEmbeddedMigrations(context.Background(), db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if err := login.UpsertOperator(context.Background(), db, testOperator, testPassword); err != nil {
		t.Fatalf("seed operator: %v", err)
	}

	fb := &fakeBackend{statuses: map[string]string{"101": "대기중", "102": "승인됨"}}
	backendServer := httptest.NewServer(fb)

	client := backend.NewClient(backendServer.URL, 2*time.Second)
	events := eventlog.New(100, eventlog.WithStore(eventlog.NewSQLiteStore(db)))
	orch := depalletizer.New(client, events,
		depalletizer.WithScanDelay(0),
		depalletizer.WithSelector(depalletizer.FixedSelector("A-1")),
	)
	ctrl := workflow.New(client, orch, events)

	s := NewServer("127.0.0.1:0", db, cache.NewSessionCache(), ctrl, events, client)
	ts := httptest.NewServer(s.Handler())
	env := &integrationEnv{server: ts, db: db, backend: fb, events: events}
	t.Cleanup(func() {
		ts.Close()
		backendServer.Close()
		_ = db.Close()
	})
	return env, newHTTPClient(t)
}

func newHTTPClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, client *http.Client, baseURL, path string) *http.Response {
	t.Helper()
	resp, err := client.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

func postForm(t *testing.T, client *http.Client, baseURL, path string, data url.Values) *http.Response {
	t.Helper()
	if data == nil {
		data = url.Values{}
	}
	if token := csrfToken(t, client, baseURL); token != "" {
		data.Set("_csrf", token)
	}
	resp, err := client.PostForm(baseURL+path, data)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func csrfToken(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == csrfCookieName {
			return c.Value
		}
	}
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func loginAs(t *testing.T, client *http.Client, baseURL, username, password string) {
	t.Helper()
	resp := get(t, client, baseURL, "/login")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login page 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = postForm(t, client, baseURL, "/login", url.Values{
		"username": {username},
		"password": {password},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected login 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != login.HomePath {
		t.Fatalf("unexpected login redirect: %s", loc)
	}
}

func TestCSRFPostWithoutTokenRejected(t *testing.T) {
	env, client := setupIntegrationServer(t)
	resp, err := client.PostForm(env.server.URL+"/login", url.Values{
		"username": {testOperator},
		"password": {testPassword},
	})
	if err != nil {
		t.Fatalf("post login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf token, got %d", resp.StatusCode)
	}
}

func TestConsoleRequiresSession(t *testing.T) {
	env, client := setupIntegrationServer(t)
	for _, path := range []string{"/console/orders", "/console/products", "/console/logs", "/"} {
		resp := get(t, client, env.server.URL, path)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %d %s", path, resp.StatusCode, resp.Header.Get("Location"))
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env, client := setupIntegrationServer(t)
	resp := get(t, client, env.server.URL, "/health")
	if body := readBody(t, resp); resp.StatusCode != http.StatusOK || body != "ok" {
		t.Fatalf("unexpected health response %d %q", resp.StatusCode, body)
	}
	resp = get(t, client, env.server.URL, "/metrics")
	if body := readBody(t, resp); !strings.Contains(body, "depalletconsole_http_requests_total") {
		t.Fatalf("expected http request counter in metrics output")
	}
}

func TestServerEndToEndApproveFlow(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, testOperator, testPassword)

	body := readBody(t, get(t, client, env.server.URL, "/console/orders"))
	if !strings.Contains(body, "/console/orders/101/approve") {
		t.Fatalf("expected approve action for pending order 101")
	}
	if strings.Contains(body, "/console/orders/102/approve") {
		t.Fatalf("approved order 102 must not offer approve")
	}

	resp := postForm(t, client, env.server.URL, "/console/orders/101/approve", nil)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected approve 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "level=success") {
		t.Fatalf("unexpected approve redirect %s", loc)
	}

	env.backend.mu.Lock()
	dispatches := append([]backend.DispatchRequest(nil), env.backend.dispatches...)
	status := env.backend.statuses["101"]
	env.backend.mu.Unlock()
	if status != "승인됨" {
		t.Fatalf("expected order 101 approved on the backend, got %q", status)
	}
	if len(dispatches) != 1 || dispatches[0].OrderID != "101" || dispatches[0].TargetSlot != "A-1" {
		t.Fatalf("unexpected dispatches %+v", dispatches)
	}

	trail, err := env.events.EntriesForOrder(context.Background(), "101")
	if err != nil {
		t.Fatalf("load trail: %v", err)
	}
	if len(trail) != 4 {
		t.Fatalf("expected status line and three run entries persisted, got %d", len(trail))
	}

	resp = get(t, client, env.server.URL, "/console/logs/orders/101.pdf")
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("expected trail pdf, got %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func TestServerApproveReportsRejectedDispatch(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, testOperator, testPassword)
	env.backend.mu.Lock()
	env.backend.dispatchErr = http.StatusInternalServerError
	env.backend.mu.Unlock()

	resp := postForm(t, client, env.server.URL, "/console/orders/101/approve", nil)
	_ = resp.Body.Close()
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "level=error") {
		t.Fatalf("expected rejected dispatch to report an error, got %s", loc)
	}

	body := readBody(t, get(t, client, env.server.URL, "/console/logs?order=101"))
	if !strings.Contains(body, "response error: 500 Internal Server Error") {
		t.Fatalf("expected rejection logged, got %s", body)
	}
}

func TestServerDeleteNeedsConfirmation(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, testOperator, testPassword)

	body := readBody(t, get(t, client, env.server.URL, "/console/orders/102/delete"))
	if !strings.Contains(body, `value="yes"`) {
		t.Fatalf("expected confirmation form")
	}

	resp := postForm(t, client, env.server.URL, "/console/orders/102/delete", url.Values{"confirm": {"yes"}})
	_ = resp.Body.Close()
	env.backend.mu.Lock()
	_, stillThere := env.backend.statuses["102"]
	env.backend.mu.Unlock()
	if stillThere {
		t.Fatalf("expected order 102 deleted on the backend")
	}
}

func TestServerProductsPage(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, testOperator, testPassword)

	body := readBody(t, get(t, client, env.server.URL, "/console/products?q=adidas"))
	if !strings.Contains(body, "AD-02") || strings.Contains(body, "UM-01") {
		t.Fatalf("expected only the adidas product, got %s", body)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, testOperator, testPassword)

	resp := postForm(t, client, env.server.URL, "/logout", nil)
	_ = resp.Body.Close()
	resp = get(t, client, env.server.URL, "/console/orders")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected redirect to login after logout, got %d", resp.StatusCode)
	}
}

func TestFormsCarryCSRFTokenWithoutScript(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, testOperator, testPassword)
	token := csrfToken(t, client, env.server.URL)

	body := readBody(t, get(t, client, env.server.URL, "/console/orders"))
	field := `<input type="hidden" name="_csrf" value="` + token + `">`
	if !strings.Contains(body, `action="/console/orders/101/approve">`+field) {
		t.Fatalf("expected approve form to embed the csrf field")
	}
	if !strings.Contains(body, `action="/logout">`+field) {
		t.Fatalf("expected logout form to embed the csrf field")
	}

	body = readBody(t, get(t, client, env.server.URL, "/console/orders/101/delete"))
	if !strings.Contains(body, field) {
		t.Fatalf("expected delete confirmation to embed the csrf field")
	}
}
