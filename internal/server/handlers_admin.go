package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

type withdrawalApprovalResponse struct {
	Withdrawal *models.Withdrawal `json:"withdrawal"`
	Approved   bool               `json:"approved"`
	Reason     string             `json:"reason,omitempty"`
}

type tokenRequest struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
	TTL       string `json:"ttl,omitempty"`
}

const (
	defaultAdminListLimit = 100
	maxAdminListLimit     = 1000
	defaultReportDays     = 30
	filterDateLayout      = "2006-01-02"
)

// parseRequestFilter reads ?status=&crypto=&from=&to=&limit= for the admin
// queues. from and to are inclusive UTC dates.
func parseRequestFilter(r *http.Request) (models.RequestFilter, error) {
	q := r.URL.Query()
	f := models.RequestFilter{
		Status:     models.RequestStatus(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		CryptoType: strings.ToUpper(strings.TrimSpace(q.Get("crypto"))),
		Limit:      QueryInt(r, "limit", defaultAdminListLimit),
	}
	if f.Limit <= 0 || f.Limit > maxAdminListLimit {
		f.Limit = maxAdminListLimit
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(filterDateLayout, v)
		if err != nil {
			return f, &models.ValidationError{Field: "from", Message: "dates must be YYYY-MM-DD"}
		}
		f.From = from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(filterDateLayout, v)
		if err != nil {
			return f, &models.ValidationError{Field: "to", Message: "dates must be YYYY-MM-DD"}
		}
		f.To = to.AddDate(0, 0, 1)
	}
	return f, nil
}

// handleAdminDepositList handles GET /api/admin/deposits across all accounts.
func (s *Server) handleAdminDepositList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}
	f, err := parseRequestFilter(r)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	deposits, err := s.app.FundingService.FindDeposits(r.Context(), f)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	if deposits == nil {
		deposits = []*models.Deposit{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deposits": deposits,
		"count":    len(deposits),
	})
}

// handleAdminWithdrawalList handles GET /api/admin/withdrawals across all accounts.
func (s *Server) handleAdminWithdrawalList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}
	f, err := parseRequestFilter(r)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	withdrawals, err := s.app.FundingService.FindWithdrawals(r.Context(), f)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	if withdrawals == nil {
		withdrawals = []*models.Withdrawal{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"withdrawals": withdrawals,
		"count":       len(withdrawals),
	})
}

// handleAdminStats handles GET /api/admin/stats.
func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}

	stats, err := s.app.ReportService.Stats(r.Context(), s.now())
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// handleAdminReports handles GET /api/admin/reports?days=N.
func (s *Server) handleAdminReports(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}

	days, err := s.app.ReportService.Daily(r.Context(), s.now(), QueryInt(r, "days", defaultReportDays))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"days": days,
	})
}

// routeAdminDeposits handles POST /api/admin/deposits/{id}/approve|cancel.
func (s *Server) routeAdminDeposits(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}
	id, action := splitResource(r, "/api/admin/deposits/")
	if id == "" {
		WriteError(w, http.StatusNotFound, "Deposit ID is required")
		return
	}

	var (
		dep *models.Deposit
		err error
	)
	switch action {
	case "approve":
		dep, err = s.app.FundingService.ApproveDeposit(r.Context(), id)
	case "cancel":
		dep, err = s.app.FundingService.CancelDeposit(r.Context(), id)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, dep)
}

// routeAdminWithdrawals handles POST /api/admin/withdrawals/{id}/approve|cancel.
// An approval the balance cannot cover leaves the withdrawal pending and is
// reported with approved=false rather than as an error.
func (s *Server) routeAdminWithdrawals(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}
	id, action := splitResource(r, "/api/admin/withdrawals/")
	if id == "" {
		WriteError(w, http.StatusNotFound, "Withdrawal ID is required")
		return
	}

	switch action {
	case "approve":
		wd, approved, err := s.app.FundingService.ApproveWithdrawal(r.Context(), id)
		if err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
		resp := withdrawalApprovalResponse{Withdrawal: wd, Approved: approved}
		if !approved {
			resp.Reason = "insufficient account balance"
		}
		WriteJSON(w, http.StatusOK, resp)
	case "cancel":
		wd, err := s.app.FundingService.CancelWithdrawal(r.Context(), id)
		if err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, withdrawalApprovalResponse{Withdrawal: wd})
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routeAdminAccounts handles POST /api/admin/accounts/{id}/reconcile.
func (s *Server) routeAdminAccounts(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}
	id, action := splitResource(r, "/api/admin/accounts/")
	if id == "" || action != "reconcile" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	report, err := s.app.AccountService.Reconcile(r.Context(), id)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// handleAdminSweep handles POST /api/admin/sweep and runs one expiry sweep inline.
func (s *Server) handleAdminSweep(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}

	result, err := s.app.SweepService.Run(r.Context(), s.now())
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleAdminTokenIssue handles POST /api/admin/tokens. Admins mint bearer
// tokens for accounts, or admin tokens when account_id is empty.
func (s *Server) handleAdminTokenIssue(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}

	var req tokenRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = common.RoleUser
	}
	switch role {
	case common.RoleUser:
		if req.AccountID == "" {
			writeServiceError(w, s.logger, &models.ValidationError{Field: "account_id", Message: "account_id is required for user tokens"})
			return
		}
		if _, err := s.app.AccountService.Get(r.Context(), req.AccountID); err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
	case common.RoleAdmin:
	default:
		writeServiceError(w, s.logger, &models.ValidationError{Field: "role", Message: "role must be user or admin"})
		return
	}

	ttl := s.app.Config.Auth.GetTokenExpiry()
	if req.TTL != "" {
		d, err := time.ParseDuration(req.TTL)
		if err != nil || d <= 0 {
			writeServiceError(w, s.logger, &models.ValidationError{Field: "ttl", Message: "invalid duration " + req.TTL})
			return
		}
		ttl = d
	}

	token, err := common.IssueToken(s.app.Config.Auth.JWTSecret, req.AccountID, role, ttl)
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, "Token signing is not configured")
		return
	}

	s.logger.Info().Str("account_id", req.AccountID).Str("role", role).Dur("ttl", ttl).Msg("Bearer token issued")
	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"token":      token,
		"role":       role,
		"account_id": req.AccountID,
		"expires_in": int(ttl.Seconds()),
	})
}
