package server

import (
	"net/http"

	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

type depositRequest struct {
	AccountID       string `json:"account_id"`
	Amount          string `json:"amount"`
	CryptoType      string `json:"crypto_type"`
	TransactionHash string `json:"transaction_hash"`
}

type withdrawalRequest struct {
	AccountID     string `json:"account_id"`
	Amount        string `json:"amount"`
	CryptoType    string `json:"crypto_type"`
	CryptoAddress string `json:"crypto_address"`
}

// handleDeposits handles GET (list) and POST (request) on /api/deposits.
func (s *Server) handleDeposits(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		accountID := accountParam(r)
		if !s.requireAccess(w, r, accountID) {
			return
		}
		deposits, err := s.app.FundingService.ListDeposits(r.Context(), accountID)
		if err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
		if deposits == nil {
			deposits = []*models.Deposit{}
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"account_id": accountID,
			"deposits":   deposits,
		})
	case http.MethodPost:
		var req depositRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		if req.AccountID == "" {
			req.AccountID = accountParam(r)
		}
		if !s.requireAccess(w, r, req.AccountID) {
			return
		}
		amount, err := models.ParseMoney("amount", req.Amount)
		if err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
		dep, err := s.app.FundingService.RequestDeposit(r.Context(), req.AccountID, amount, req.CryptoType, req.TransactionHash)
		if err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, dep)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleWithdrawals handles GET (list) and POST (request) on /api/withdrawals.
func (s *Server) handleWithdrawals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		accountID := accountParam(r)
		if !s.requireAccess(w, r, accountID) {
			return
		}
		withdrawals, err := s.app.FundingService.ListWithdrawals(r.Context(), accountID)
		if err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
		if withdrawals == nil {
			withdrawals = []*models.Withdrawal{}
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"account_id":  accountID,
			"withdrawals": withdrawals,
		})
	case http.MethodPost:
		var req withdrawalRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		if req.AccountID == "" {
			req.AccountID = accountParam(r)
		}
		if !s.requireAccess(w, r, req.AccountID) {
			return
		}
		amount, err := models.ParseMoney("amount", req.Amount)
		if err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
		wd, err := s.app.FundingService.RequestWithdrawal(r.Context(), req.AccountID, amount, req.CryptoType, req.CryptoAddress)
		if err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, wd)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}
