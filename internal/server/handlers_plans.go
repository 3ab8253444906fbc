package server

import (
	"net/http"
	"strings"

	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

// handlePlanList handles GET /api/plans. The catalog is public.
func (s *Server) handlePlanList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	plans, err := s.app.PlanService.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	if plans == nil {
		plans = []*models.Plan{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

// handlePlanGet handles GET /api/plans/{id}.
func (s *Server) handlePlanGet(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/plans/"), "/")
	if id == "" {
		WriteError(w, http.StatusNotFound, "Plan ID is required")
		return
	}
	plan, err := s.app.PlanService.Find(r.Context(), id)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, plan)
}

// handleAdminPlanSave handles POST /api/admin/plans. Saving an existing ID
// updates it; investments keep the rates they were opened with.
func (s *Server) handleAdminPlanSave(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}

	var plan models.Plan
	if !DecodeJSON(w, r, &plan) {
		return
	}
	if err := s.app.PlanService.Save(r.Context(), &plan); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, plan)
}
