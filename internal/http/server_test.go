package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"shopadmin/internal/config"
	"shopadmin/internal/session"
	"shopadmin/internal/shopapi"
)

// fakeShopAPI stands in for the remote shop backend: login issues signed
// tokens, every other route checks them, and debts live in memory.
type fakeShopAPI struct {
	mu      sync.Mutex
	debts   []shopapi.Debt
	users   []shopapi.User
	orders  []shopapi.Order
	nextID  int
	tokens  map[string]bool
	revoked bool
}

func newFakeShopAPI() *fakeShopAPI {
	return &fakeShopAPI{
		users: []shopapi.User{
			{ID: "u-1", Name: "Ann", PhoneNumber: "+998900000001"},
			{ID: "u-2", Name: "Bob", PhoneNumber: "+998900000002"},
		},
		orders: []shopapi.Order{{ID: "o-1", Status: shopapi.OrderPending, TotalPrice: 12000}},
		tokens: make(map[string]bool),
	}
}

func mintToken(t *testing.T, userID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{"user_id": userID, "role": role}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("upstream-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (f *fakeShopAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/users/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Login    string `json:"login"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		var token string
		switch {
		case creds.Login == "admin" && creds.Password == "secret":
			token = mintToken(t, "u-admin", "admin")
		case creds.Login == "cashier" && creds.Password == "secret":
			token = mintToken(t, "u-cashier", "cashier")
		default:
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		f.tokens[token] = true
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			f.mu.Lock()
			ok := f.tokens[token] && !f.revoked
			f.mu.Unlock()
			if token == "" || !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("/users/list", authed(func(w http.ResponseWriter, r *http.Request) {
		name := strings.ToLower(r.URL.Query().Get("name"))
		f.mu.Lock()
		defer f.mu.Unlock()
		var out []shopapi.User
		for _, u := range f.users {
			if name == "" || strings.Contains(strings.ToLower(u.Name), name) {
				out = append(out, u)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string][]shopapi.User{"users": out})
	}))

	mux.HandleFunc("/debt/get", authed(func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("id")
		status := r.URL.Query().Get("status")
		f.mu.Lock()
		defer f.mu.Unlock()
		var out []shopapi.Debt
		for _, d := range f.debts {
			if d.UserID == userID && d.Status == status {
				out = append(out, d)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string][]shopapi.Debt{"debt_logs": out})
	}))

	mux.HandleFunc("/debt/create", authed(func(w http.ResponseWriter, r *http.Request) {
		var in shopapi.DebtInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.nextID++
		f.debts = append(f.debts, shopapi.Debt{
			ID:        fmt.Sprintf("d-%d", f.nextID),
			UserID:    in.UserID,
			Amount:    in.Amount,
			Reason:    in.Reason,
			Status:    shopapi.DebtStatusTook,
			GivenTime: time.Now().UTC(),
		})
		w.WriteHeader(http.StatusCreated)
	}))

	mux.HandleFunc("/debt/update", authed(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		var in shopapi.DebtUpdate
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.debts {
			if f.debts[i].ID == id {
				f.debts[i].Amount = in.Amount
				f.debts[i].Reason = in.Reason
				f.debts[i].Status = in.Status
				if in.Status == shopapi.DebtStatusGave {
					now := time.Now().UTC()
					f.debts[i].TakenTime = &now
				}
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	mux.HandleFunc("/order/get", authed(func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(f.orders)
	}))

	mux.HandleFunc("/order/update", authed(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		var in struct {
			Status shopapi.OrderStatus `json:"status"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.orders {
			if f.orders[i].ID == id {
				f.orders[i].Status = in.Status
				_ = json.NewEncoder(w).Encode(f.orders[i])
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	mux.HandleFunc("/stats", authed(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(shopapi.Stats{Users: 2, TotalDebt: 5000})
	}))

	return mux
}

func startApp(t *testing.T) (*httptest.Server, *fakeShopAPI) {
	t.Helper()
	shop := newFakeShopAPI()
	upstream := httptest.NewServer(shop.handler(t))
	t.Cleanup(upstream.Close)

	cfg := config.Config{
		HTTPAddr:       ":0",
		ShopAPIURL:     upstream.URL,
		SessionTTL:     time.Hour,
		SearchDebounce: 5 * time.Millisecond,
	}
	api := shopapi.New(upstream.URL, upstream.Client())
	sessions := session.NewMemoryStore(cfg.SessionTTL)
	app := httptest.NewServer(NewServer(cfg, api, sessions).Router())
	t.Cleanup(app.Close)
	return app, shop
}

func doReq(t *testing.T, method, url, sessionID string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set("Authorization", "Bearer "+sessionID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func login(t *testing.T, appURL, user, password string) string {
	t.Helper()
	resp := doReq(t, http.MethodPost, appURL+"/login", "", map[string]string{
		"login": user, "password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	var out sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if out.SessionID == "" || out.Role != "admin" {
		t.Fatalf("unexpected session: %+v", out)
	}
	return out.SessionID
}

func TestLoginGate(t *testing.T) {
	app, _ := startApp(t)

	// No session at all.
	resp := doReq(t, http.MethodGet, app.URL+"/debts?user_id=u-1", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", resp.StatusCode)
	}

	// Wrong credentials never reach a session.
	resp = doReq(t, http.MethodPost, app.URL+"/login", "", map[string]string{
		"login": "admin", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad credentials, got %d", resp.StatusCode)
	}

	// A valid token with the wrong role is discarded.
	resp = doReq(t, http.MethodPost, app.URL+"/login", "", map[string]string{
		"login": "cashier", "password": "secret",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", resp.StatusCode)
	}

	sessionID := login(t, app.URL, "admin", "secret")
	resp = doReq(t, http.MethodGet, app.URL+"/stats", sessionID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d", resp.StatusCode)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	app, _ := startApp(t)
	sessionID := login(t, app.URL, "admin", "secret")

	resp := doReq(t, http.MethodPost, app.URL+"/logout", sessionID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}
	resp = doReq(t, http.MethodGet, app.URL+"/stats", sessionID, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestDebtLifecycle(t *testing.T) {
	app, shop := startApp(t)
	sessionID := login(t, app.URL, "admin", "secret")

	// Invalid form never reaches the upstream.
	resp := doReq(t, http.MethodPost, app.URL+"/debts", sessionID, map[string]interface{}{
		"user_id": "u-1", "amount": 0, "reason": "loan",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid debt, got %d", resp.StatusCode)
	}
	shop.mu.Lock()
	if len(shop.debts) != 0 {
		t.Fatalf("invalid debt must not be created upstream")
	}
	shop.mu.Unlock()

	resp = doReq(t, http.MethodPost, app.URL+"/debts", sessionID, map[string]interface{}{
		"user_id": "u-1", "amount": 5000, "reason": "loan",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create debt: expected 201, got %d", resp.StatusCode)
	}
	var created debtListResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(created.Debts) != 1 || created.Total != 5000 {
		t.Fatalf("unexpected created view: %+v", created)
	}
	debtID := created.Debts[0].ID

	resp = doReq(t, http.MethodPost, app.URL+"/debts/"+debtID+"/paid?user_id=u-1", sessionID, map[string]interface{}{
		"amount": 5000, "reason": "paid in full",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark paid: expected 200, got %d", resp.StatusCode)
	}
	var afterPaid debtListResponse
	if err := json.NewDecoder(resp.Body).Decode(&afterPaid); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(afterPaid.Debts) != 0 || afterPaid.Total != 0 {
		t.Fatalf("settled debt must leave the outstanding view: %+v", afterPaid)
	}

	resp = doReq(t, http.MethodGet, app.URL+"/debts?user_id=u-1&status=gave", sessionID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list gave: expected 200, got %d", resp.StatusCode)
	}
	var gave debtListResponse
	if err := json.NewDecoder(resp.Body).Decode(&gave); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(gave.Debts) != 1 || gave.Debts[0].TakenTime == nil {
		t.Fatalf("settled debt must appear under gave with taken_time: %+v", gave)
	}

	// Settling again: the debt is no longer in the outstanding view.
	resp = doReq(t, http.MethodPost, app.URL+"/debts/"+debtID+"/paid?user_id=u-1", sessionID, map[string]interface{}{
		"amount": 5000, "reason": "again",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for a settled debt, got %d", resp.StatusCode)
	}
}

func TestDebtListWithoutUser(t *testing.T) {
	app, _ := startApp(t)
	sessionID := login(t, app.URL, "admin", "secret")

	resp := doReq(t, http.MethodGet, app.URL+"/debts", sessionID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out debtListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Debts == nil || len(out.Debts) != 0 || out.Total != 0 {
		t.Fatalf("no user selected must yield an empty list: %+v", out)
	}
}

func TestUserSearch(t *testing.T) {
	app, _ := startApp(t)
	sessionID := login(t, app.URL, "admin", "secret")

	resp := doReq(t, http.MethodGet, app.URL+"/users/search?q=ann", sessionID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Users []shopapi.User `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Users) != 1 || out.Users[0].Name != "Ann" {
		t.Fatalf("unexpected search result: %+v", out.Users)
	}
}

func TestSessionExpiresWhenUpstreamRejectsToken(t *testing.T) {
	app, shop := startApp(t)
	sessionID := login(t, app.URL, "admin", "secret")

	shop.mu.Lock()
	shop.revoked = true
	shop.mu.Unlock()

	resp := doReq(t, http.MethodGet, app.URL+"/stats", sessionID, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 when upstream rejects the token, got %d", resp.StatusCode)
	}

	// The session is gone; even a restored upstream will not accept it.
	shop.mu.Lock()
	shop.revoked = false
	shop.mu.Unlock()
	resp = doReq(t, http.MethodGet, app.URL+"/stats", sessionID, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for the destroyed session, got %d", resp.StatusCode)
	}
}

func TestDebtReportDownload(t *testing.T) {
	app, _ := startApp(t)
	sessionID := login(t, app.URL, "admin", "secret")

	resp := doReq(t, http.MethodPost, app.URL+"/debts", sessionID, map[string]interface{}{
		"user_id": "u-1", "amount": 2500, "reason": "groceries",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create debt: expected 201, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodGet, app.URL+"/debts/report.xlsx?user_id=u-1&user_name=Ann", sessionID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report: expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestOrderStatusUpdate(t *testing.T) {
	app, _ := startApp(t)
	sessionID := login(t, app.URL, "admin", "secret")

	resp := doReq(t, http.MethodPut, app.URL+"/orders/o-1/status", sessionID, map[string]string{
		"status": "paused",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodPut, app.URL+"/orders/o-1/status", sessionID, map[string]string{
		"status": "confirmed",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Orders []orderResponse `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Orders) != 1 || out.Orders[0].Status != shopapi.OrderConfirmed {
		t.Fatalf("unexpected orders: %+v", out.Orders)
	}
	if out.Orders[0].StatusLabel != "Tasdiqlandi" {
		t.Fatalf("unexpected label %q", out.Orders[0].StatusLabel)
	}
}
