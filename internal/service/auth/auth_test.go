package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	jwtMiddleware "github.com/samirwankhede/stayinsights/internal/middleware"
	"github.com/samirwankhede/stayinsights/internal/store/users"
)

type fakeUsers struct {
	byEmail map[string]*users.User
	err     error
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*users.User, error) {
	return f.byEmail[email], f.err
}

func newService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(zap.NewNop(), fakeUsers{byEmail: map[string]*users.User{
		"owner@example.com": {ID: "u1", Name: "Olive", Email: "owner@example.com", PasswordHash: string(hash), Role: "owner"},
	}}, "secret")
}

func TestLoginIssuesRoleToken(t *testing.T) {
	s := newService(t)

	resp, err := s.Login(context.Background(), LoginRequest{Email: " owner@example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "owner", resp.User.Role)

	claims, err := jwtMiddleware.Parse("secret", resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "owner", claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.Login(ctx, LoginRequest{Email: "owner@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginSurfacesLookupFailure(t *testing.T) {
	s := NewAuthService(zap.NewNop(), fakeUsers{err: errors.New("pool closed")}, "secret")
	_, err := s.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
