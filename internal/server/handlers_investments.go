package server

import (
	"net/http"

	"github.com/Giftedmindbenjamin/surbminer/internal/ledger"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

type openInvestmentRequest struct {
	AccountID string `json:"account_id"`
	PlanID    string `json:"plan_id"`
	Amount    string `json:"amount"`
}

type accrueResponse struct {
	ledger.AccrualResult
	Investment *models.Investment `json:"investment"`
}

// handleInvestments handles GET (list) and POST (open) on /api/investments.
func (s *Server) handleInvestments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleInvestmentList(w, r)
	case http.MethodPost:
		s.handleInvestmentOpen(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleInvestmentList(w http.ResponseWriter, r *http.Request) {
	accountID := accountParam(r)
	if !s.requireAccess(w, r, accountID) {
		return
	}
	investments, err := s.app.InvestmentService.List(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	if investments == nil {
		investments = []*models.Investment{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account_id":  accountID,
		"investments": investments,
	})
}

func (s *Server) handleInvestmentOpen(w http.ResponseWriter, r *http.Request) {
	var req openInvestmentRequest
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

	inv, err := s.app.InvestmentService.Open(r.Context(), req.AccountID, req.PlanID, amount)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, inv)
}

// routeInvestments dispatches /api/investments/{id}[/accrue].
func (s *Server) routeInvestments(w http.ResponseWriter, r *http.Request) {
	id, action := splitResource(r, "/api/investments/")
	if id == "" {
		WriteError(w, http.StatusNotFound, "Investment ID is required")
		return
	}
	if _, ok := s.requireCaller(w, r); !ok {
		return
	}

	owner, err := s.app.Storage.LedgerStore().GetInvestment(r.Context(), id)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	if !s.requireAccess(w, r, owner.AccountID) {
		return
	}

	switch action {
	case "":
		if !RequireMethod(w, r, http.MethodGet) {
			return
		}
		inv, err := s.app.InvestmentService.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, inv)
	case "accrue":
		if !RequireMethod(w, r, http.MethodPost) {
			return
		}
		result, err := s.app.InvestmentService.Accrue(r.Context(), id)
		if err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
		inv, err := s.app.Storage.LedgerStore().GetInvestment(r.Context(), id)
		if err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, accrueResponse{AccrualResult: result, Investment: inv})
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routeAdminInvestments dispatches POST /api/admin/investments/{id}/complete|cancel.
func (s *Server) routeAdminInvestments(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}
	id, action := splitResource(r, "/api/admin/investments/")
	if id == "" {
		WriteError(w, http.StatusNotFound, "Investment ID is required")
		return
	}

	ctx := r.Context()
	completed := false
	switch action {
	case "complete":
		ok, err := s.app.InvestmentService.Complete(ctx, id)
		if err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
		completed = ok
	case "cancel":
		if err := s.app.InvestmentService.Cancel(ctx, id); err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
	default:
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	inv, err := s.app.Storage.LedgerStore().GetInvestment(ctx, id)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	resp := map[string]interface{}{"investment": inv}
	if action == "complete" {
		resp["completed"] = completed
	}
	WriteJSON(w, http.StatusOK, resp)
}
