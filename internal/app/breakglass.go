package app

import (
	"github.com/Giftedmindbenjamin/surbminer/internal/common"
)

// issueBreakglassToken signs an admin bearer token and writes it to the log
// so an operator can reach the admin API before any token tooling exists.
// It returns the token, or "" when signing fails.
func issueBreakglassToken(config *common.Config, logger *common.Logger) string {
	expiry := config.Auth.GetTokenExpiry()
	token, err := common.IssueToken(config.Auth.JWTSecret, "", common.RoleAdmin, expiry)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to issue break-glass admin token")
		return ""
	}

	logger.Warn().
		Str("token", token).
		Dur("expires_in", expiry).
		Msg("Break-glass admin token issued")

	return token
}
