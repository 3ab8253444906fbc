package common

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken("secret", "acc_1", RoleUser, time.Hour)
	require.NoError(t, err)

	uc, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "acc_1", uc.AccountID)
	assert.Equal(t, RoleUser, uc.Role)

	admin, err := IssueToken("secret", "", RoleAdmin, time.Hour)
	require.NoError(t, err)
	uc, err = ParseToken("secret", admin)
	require.NoError(t, err)
	assert.True(t, uc.IsAdmin())
}

func TestParseToken_Rejects(t *testing.T) {
	good, err := IssueToken("secret", "acc_1", RoleUser, time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken("secret", "acc_1", RoleUser, -time.Minute)
	require.NoError(t, err)
	noSubject, err := IssueToken("secret", "", RoleUser, time.Hour)
	require.NoError(t, err)
	badRole, err := IssueToken("secret", "acc_1", "root", time.Hour)
	require.NoError(t, err)
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "acc_1",
		"role": RoleUser,
		"iss":  "someone-else",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other", good},
		{"expired", "secret", expired},
		{"user without subject", "secret", noSubject},
		{"unknown role", "secret", badRole},
		{"foreign issuer", "secret", foreign},
		{"garbage", "secret", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.secret, tt.token)
			assert.True(t, errors.Is(err, ErrInvalidToken), "err = %v", err)
		})
	}

	_, err = IssueToken("", "acc_1", RoleUser, time.Hour)
	assert.Error(t, err)
}
