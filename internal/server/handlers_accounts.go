package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 500
)

type registerResponse struct {
	Account *models.Account `json:"account"`
	Token   string          `json:"token,omitempty"`
}

// handleAccountRegister handles POST /api/accounts.
func (s *Server) handleAccountRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.RegisterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	account, err := s.app.AccountService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	resp := registerResponse{Account: account}
	if s.app.Config.Auth.JWTSecret != "" {
		token, err := common.IssueToken(s.app.Config.Auth.JWTSecret, account.ID, common.RoleUser, s.app.Config.Auth.GetTokenExpiry())
		if err != nil {
			s.logger.Warn().Err(err).Str("account_id", account.ID).Msg("Failed to issue token for new account")
		} else {
			resp.Token = token
		}
	}

	WriteJSON(w, http.StatusCreated, resp)
}

// routeAccounts dispatches /api/accounts/{id}[/summary|/transactions|/referrals].
func (s *Server) routeAccounts(w http.ResponseWriter, r *http.Request) {
	id, action := splitResource(r, "/api/accounts/")
	if id == "" {
		WriteError(w, http.StatusNotFound, "Account ID is required")
		return
	}
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if !s.requireAccess(w, r, id) {
		return
	}

	switch action {
	case "":
		s.handleAccountGet(w, r, id)
	case "summary":
		s.handleAccountSummary(w, r, id)
	case "transactions":
		s.handleAccountTransactions(w, r, id)
	case "referrals":
		s.handleAccountReferrals(w, r, id)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) handleAccountGet(w http.ResponseWriter, r *http.Request, id string) {
	account, err := s.app.AccountService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, account)
}

func (s *Server) handleAccountSummary(w http.ResponseWriter, r *http.Request, id string) {
	summary, err := s.app.AccountService.Summary(r.Context(), id, s.now())
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

// handleAccountTransactions returns the ledger history, newest first.
func (s *Server) handleAccountTransactions(w http.ResponseWriter, r *http.Request, id string) {
	limit := QueryInt(r, "limit", defaultTransactionLimit)
	if limit <= 0 || limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}

	store := s.app.Storage.LedgerStore()
	if _, err := store.GetAccount(r.Context(), id); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	txs, err := store.ListTransactions(r.Context(), id, limit)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	if txs == nil {
		txs = []*models.Transaction{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account_id":   id,
		"transactions": txs,
	})
}

// referralLink points new users at registration with the code pre-filled.
func (s *Server) referralLink(r *http.Request, code string) string {
	base := strings.TrimRight(s.app.Config.Server.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/register?ref=" + url.QueryEscape(code)
}

func (s *Server) handleAccountReferrals(w http.ResponseWriter, r *http.Request, id string) {
	refs, err := s.app.AccountService.Referrals(r.Context(), id)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	refs.ReferralLink = s.referralLink(r, refs.ReferralCode)
	WriteJSON(w, http.StatusOK, refs)
}
