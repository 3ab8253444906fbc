package server

import (
	"net/http"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
)

// requireCaller returns the authenticated caller or writes a 401.
func (s *Server) requireCaller(w http.ResponseWriter, r *http.Request) (*common.UserContext, bool) {
	uc := common.UserContextFromContext(r.Context())
	if uc == nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		WriteErrorWithCode(w, http.StatusUnauthorized, "Authentication required", CodeUnauthorized)
		return nil, false
	}
	return uc, true
}

// requireAccess allows admins and the owner of accountID.
func (s *Server) requireAccess(w http.ResponseWriter, r *http.Request, accountID string) bool {
	uc, ok := s.requireCaller(w, r)
	if !ok {
		return false
	}
	if !uc.CanAccess(accountID) {
		WriteErrorWithCode(w, http.StatusForbidden, "Access to this account is not allowed", CodeForbidden)
		return false
	}
	return true
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	uc, ok := s.requireCaller(w, r)
	if !ok {
		return false
	}
	if !uc.IsAdmin() {
		WriteErrorWithCode(w, http.StatusForbidden, "Admin access required", CodeForbidden)
		return false
	}
	return true
}

// accountParam resolves the ?account= query parameter, defaulting to the
// caller's own account.
func accountParam(r *http.Request) string {
	if id := r.URL.Query().Get("account"); id != "" {
		return id
	}
	return common.ResolveAccountID(r.Context())
}
