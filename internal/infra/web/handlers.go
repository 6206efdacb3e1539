package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/repository"
	"line-fortune-subscription/internal/infra/metrics"
	red "line-fortune-subscription/internal/infra/redis"
)

// ===== JSON plumbing =====

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeError maps domain sentinels to HTTP statuses in one place.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrNoActiveSubscription):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrVerifyInProgress):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrExternalService):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Success: false, Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		return domain.ErrInvalidArgument
	}
	return nil
}

// ===== Member auth =====

type loginRequest struct {
	IDToken string `json:"id_token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ok, err := s.limiter.Allow(r.Context(), red.LoginKey(r.RemoteAddr), 10, 5*time.Minute)
	if err != nil {
		s.log.Warn().Err(err).Msg("login rate limiter unavailable")
	} else if !ok {
		writeError(w, domain.ErrRateLimited)
		return
	}

	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.users.Login(r.Context(), req.IDToken)
	if err != nil {
		writeError(w, err)
		return
	}
	if res.Registered {
		if _, err := s.auth.Mint(w, res.User.LineUserID, RoleMember); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, res)
}

type registerRequest struct {
	IDToken   string `json:"id_token"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := s.users.Register(r.Context(), req.IDToken, req.FullName, req.Phone, req.BirthDate)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.auth.Mint(w, user.LineUserID, RoleMember); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "user": user})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ===== Orders =====

func (s *Server) handlePaymentRequest(w http.ResponseWriter, r *http.Request) {
	s.servePaymentRequest(w, r, model.TransactionTypePayment)
}

func (s *Server) handleRenewRequest(w http.ResponseWriter, r *http.Request) {
	s.servePaymentRequest(w, r, model.TransactionTypeRenewal)
}

func (s *Server) servePaymentRequest(w http.ResponseWriter, r *http.Request, typ model.TransactionType) {
	p := PrincipalFrom(r.Context())
	req, err := s.payments.CreatePaymentRequest(r.Context(), p.Subject, typ)
	if err != nil {
		metrics.IncPaymentRequest(string(typ), "error")
		writeError(w, err)
		return
	}
	metrics.IncPaymentRequest(string(typ), "ok")
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleVerifySlip(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())

	ok, err := s.limiter.Allow(r.Context(), red.SlipUploadKey(p.Subject), 5, time.Minute)
	if err != nil {
		s.log.Warn().Err(err).Msg("slip rate limiter unavailable")
	} else if !ok {
		writeError(w, domain.ErrRateLimited)
		return
	}

	if err := r.ParseMultipartForm(s.maxSlipBytes); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	transactionID := r.FormValue("transaction_id")
	file, _, err := r.FormFile("slip")
	if err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	defer file.Close()
	image, err := io.ReadAll(io.LimitReader(file, s.maxSlipBytes))
	if err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}

	outcome, err := s.payments.VerifySlip(r.Context(), p.Subject, transactionID, image)
	if err != nil {
		metrics.IncSlipVerification("error")
		writeError(w, err)
		return
	}
	if outcome.Verified {
		metrics.IncSlipVerification("settled")
		metrics.IncSubscriptionGranted("slip")
	} else {
		metrics.IncSlipVerification("mismatch")
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	status, err := s.payments.CheckOrderStatus(r.Context(), p.Subject, chi.URLParam(r, "transactionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	if err := s.payments.CancelTransaction(r.Context(), p.Subject, chi.URLParam(r, "transactionID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ===== Member content =====

func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	sub, err := s.subs.GetActive(r.Context(), p.Subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleTodayFortune(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	f, err := s.fortunes.GetTodayFortune(r.Context(), p.Subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// ===== Back office =====

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	ok, err := s.limiter.Allow(r.Context(), red.LoginKey(r.RemoteAddr), 10, 5*time.Minute)
	if err != nil {
		s.log.Warn().Err(err).Msg("login rate limiter unavailable")
	} else if !ok {
		writeError(w, domain.ErrRateLimited)
		return
	}

	var req adminLoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	admin, err := s.admins.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.auth.Mint(w, admin.Username, RoleAdmin); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "username": admin.Username})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	f := repository.TransactionFilter{
		RecipientName: q.Get("recipient"),
		Status:        model.TransactionStatus(q.Get("status")),
		UpdatedOn:     q.Get("updated_on"),
		Offset:        (page - 1) * limit,
		Limit:         limit,
	}
	items, total, err := s.payments.ListTransactions(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

type updateTransactionRequest struct {
	Status model.TransactionStatus `json:"status"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.payments.SettleManually(r.Context(), chi.URLParam(r, "transactionID"), req.Status); err != nil {
		writeError(w, err)
		return
	}
	if req.Status == model.TransactionStatusCompleted {
		metrics.IncSubscriptionGranted("manual")
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type addAdminRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (s *Server) handleAddAdmin(w http.ResponseWriter, r *http.Request) {
	var req addAdminRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	admin, err := s.admins.AddAdmin(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "username": admin.Username})
}

type createFortuneRequest struct {
	UserID      string `json:"user_id"`
	FortuneDate string `json:"fortune_date"`
	Category    string `json:"category"`
	Zodiac      string `json:"zodiac"`
	Content     string `json:"content"`
}

func (s *Server) handleCreateFortune(w http.ResponseWriter, r *http.Request) {
	var req createFortuneRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	f := &model.DailyFortune{
		UserID:      req.UserID,
		FortuneDate: req.FortuneDate,
		Category:    req.Category,
		Zodiac:      req.Zodiac,
		Content:     req.Content,
	}
	if err := s.fortunes.CreateFortune(r.Context(), f); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "fortune": f})
}

func (s *Server) handleRunDispatch(w http.ResponseWriter, r *http.Request) {
	report, err := s.dispatch.SendDailyFortunes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": report})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.users.CountUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": count})
}
