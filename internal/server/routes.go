package server

import (
	"net/http"
	"time"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
)

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Accounts
	mux.HandleFunc("/api/accounts", s.handleAccountRegister)
	mux.HandleFunc("/api/accounts/", s.routeAccounts)

	// Plans
	mux.HandleFunc("/api/plans", s.handlePlanList)
	mux.HandleFunc("/api/plans/", s.handlePlanGet)

	// Investments
	mux.HandleFunc("/api/investments", s.handleInvestments)
	mux.HandleFunc("/api/investments/", s.routeInvestments)

	// Funding
	mux.HandleFunc("/api/deposits", s.handleDeposits)
	mux.HandleFunc("/api/withdrawals", s.handleWithdrawals)

	// Admin
	mux.HandleFunc("/api/admin/plans", s.handleAdminPlanSave)
	mux.HandleFunc("/api/admin/investments/", s.routeAdminInvestments)
	mux.HandleFunc("/api/admin/deposits", s.handleAdminDepositList)
	mux.HandleFunc("/api/admin/deposits/", s.routeAdminDeposits)
	mux.HandleFunc("/api/admin/withdrawals", s.handleAdminWithdrawalList)
	mux.HandleFunc("/api/admin/withdrawals/", s.routeAdminWithdrawals)
	mux.HandleFunc("/api/admin/accounts/", s.routeAdminAccounts)
	mux.HandleFunc("/api/admin/stats", s.handleAdminStats)
	mux.HandleFunc("/api/admin/reports", s.handleAdminReports)
	mux.HandleFunc("/api/admin/sweep", s.handleAdminSweep)
	mux.HandleFunc("/api/admin/tokens", s.handleAdminTokenIssue)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}
