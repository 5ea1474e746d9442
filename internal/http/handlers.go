package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"shopadmin/internal/auth"
	"shopadmin/internal/ledger"
	"shopadmin/internal/report"
	"shopadmin/internal/shopapi"
	"shopadmin/internal/views"
)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	token, err := s.api.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		var statusErr *shopapi.StatusError
		if errors.As(err, &statusErr) && statusErr.Code < http.StatusInternalServerError {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusBadGateway, "upstream_error")
		return
	}

	claims, err := auth.RequireAdmin(token)
	if err != nil {
		// The token never makes it into a session.
		writeError(w, http.StatusForbidden, "admin_required")
		return
	}

	sess, err := s.sessions.Create(r.Context(), token, claims.UserID, claims.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: sess.ID, Role: sess.Role})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	s.dropSearcher(sess.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.client(r).Stats(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := views.Categories(s.client(r)).List(r.Context(), "")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeCategories(w, http.StatusOK, items)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in shopapi.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	items, err := views.Categories(s.client(r)).Create(r.Context(), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeCategories(w, http.StatusCreated, items)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in shopapi.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	items, err := views.Categories(s.client(r)).Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeCategories(w, http.StatusOK, items)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	items, err := views.Categories(s.client(r)).Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeCategories(w, http.StatusOK, items)
}

func writeCategories(w http.ResponseWriter, status int, items []shopapi.Category) {
	if items == nil {
		items = []shopapi.Category{}
	}
	writeJSON(w, status, map[string][]shopapi.Category{"categories": items})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	items, err := views.Products(s.client(r)).List(r.Context(), r.URL.Query().Get("category_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeProducts(w, http.StatusOK, items)
}

// handleSaveProduct serves both create and update. A multipart body may
// carry a "file" part; its upload must succeed before the product is
// submitted.
func (s *Server) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	in, image, cleanup, err := productForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	defer cleanup()

	id := chi.URLParam(r, "id")
	items, err := views.Products(s.client(r)).Save(r.Context(), id, in, image)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	writeProducts(w, status, items)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	items, err := views.Products(s.client(r)).Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeProducts(w, http.StatusOK, items)
}

func writeProducts(w http.ResponseWriter, status int, items []shopapi.Product) {
	if items == nil {
		items = []shopapi.Product{}
	}
	writeJSON(w, status, map[string][]shopapi.Product{"products": items})
}

func productForm(r *http.Request) (shopapi.ProductInput, *views.PendingImage, func(), error) {
	noop := func() {}
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var in shopapi.ProductInput
		if err := decodeJSON(r, &in); err != nil {
			return shopapi.ProductInput{}, nil, noop, err
		}
		return in, nil, noop, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return shopapi.ProductInput{}, nil, noop, err
	}
	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	count, _ := strconv.Atoi(r.FormValue("count"))
	size, _ := strconv.Atoi(r.FormValue("size"))
	in := shopapi.ProductInput{
		CategoryID:  r.FormValue("category_id"),
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       price,
		Count:       count,
		Size:        size,
		Type:        r.FormValue("type"),
		ImgURL:      r.FormValue("img_url"),
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, noop, nil
	}
	if err != nil {
		return shopapi.ProductInput{}, nil, noop, err
	}
	image := &views.PendingImage{Filename: header.Filename, Data: file}
	return in, image, func() { _ = file.Close() }, nil
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := views.Users(s.client(r)).List(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeUsers(w, http.StatusOK, users)
}

// handleSearchUsers is the debounced lookup behind the debt screen's user
// picker. A request superseded by a later keystroke gets 204; the caller
// must discard it.
func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	users, ok, err := s.searcher(sess).Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeUsers(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in shopapi.UserInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	users, err := views.Users(s.client(r)).Create(r.Context(), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeUsers(w, http.StatusCreated, users)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var in shopapi.UserInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	users, err := views.Users(s.client(r)).Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeUsers(w, http.StatusOK, users)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	users, err := views.Users(s.client(r)).Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeUsers(w, http.StatusOK, users)
}

func writeUsers(w http.ResponseWriter, status int, users []shopapi.User) {
	if users == nil {
		users = []shopapi.User{}
	}
	writeJSON(w, status, map[string][]shopapi.User{"users": users})
}

type debtListResponse struct {
	Debts []shopapi.Debt `json:"debts"`
	Total float64        `json:"total"`
}

func debtStatus(r *http.Request) string {
	if status := r.URL.Query().Get("status"); status != "" {
		return status
	}
	return shopapi.DebtStatusTook
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	led := ledger.New(s.client(r))
	debts, err := led.List(r.Context(), r.URL.Query().Get("user_id"), debtStatus(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeDebts(w, http.StatusOK, debts)
}

type createDebtRequest struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req createDebtRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	led := ledger.New(s.client(r))
	if err := led.Select(req.UserID, shopapi.DebtStatusTook); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	in := ledger.CreateInput{UserID: req.UserID, Amount: req.Amount, Reason: req.Reason}
	if err := led.Create(r.Context(), in); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeDebts(w, http.StatusCreated, led.Debts())
}

type paymentRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// handleMarkDebtPaid settles one outstanding debt. The user_id query names
// whose outstanding view the debt must be found in.
func (s *Server) handleMarkDebtPaid(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	led := ledger.New(s.client(r))
	if _, err := led.List(r.Context(), userID, shopapi.DebtStatusTook); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	payment := ledger.Payment{Amount: req.Amount, Reason: req.Reason}
	if err := led.MarkPaid(r.Context(), chi.URLParam(r, "id"), payment); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeDebts(w, http.StatusOK, led.Debts())
}

func (s *Server) handleDebtReport(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	led := ledger.New(s.client(r))
	debts, err := led.List(r.Context(), userID, debtStatus(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteDebtsXLSX(&buf, r.URL.Query().Get("user_name"), debts); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="debts.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func writeDebts(w http.ResponseWriter, status int, debts []shopapi.Debt) {
	if debts == nil {
		debts = []shopapi.Debt{}
	}
	writeJSON(w, status, debtListResponse{Debts: debts, Total: ledger.Total(debts)})
}

type orderResponse struct {
	shopapi.Order
	StatusLabel string `json:"status_label"`
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := views.Orders(s.client(r)).List(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOrders(w, http.StatusOK, orders)
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req orderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	view := views.Orders(s.client(r))
	orders, err := view.UpdateStatus(r.Context(), chi.URLParam(r, "id"), shopapi.OrderStatus(req.Status))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOrders(w, http.StatusOK, orders)
}

func writeOrders(w http.ResponseWriter, status int, orders []shopapi.Order) {
	payload := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, orderResponse{Order: order, StatusLabel: order.Status.Label()})
	}
	writeJSON(w, status, map[string][]orderResponse{"orders": payload})
}
