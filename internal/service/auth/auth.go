package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	jwtMiddleware "github.com/samirwankhede/stayinsights/internal/middleware"
	"github.com/samirwankhede/stayinsights/internal/store/users"
)

const tokenTTL = 24 * time.Hour

// UserFinder looks a user up by login address; nil, nil means no such user.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
}

type AuthService struct {
	log    *zap.Logger
	users  UserFinder
	secret string
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string    `json:"token"`
	User    UserInfo  `json:"user"`
	Expires time.Time `json:"expires"`
}

type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

var ErrInvalidCredentials = errors.New("invalid credentials")

func NewAuthService(log *zap.Logger, users UserFinder, secret string) *AuthService {
	return &AuthService{
		log:    log,
		users:  users,
		secret: secret,
	}
}

// Login checks the password and issues a token carrying the user's id and
// role. Unknown addresses and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		s.log.Error("user lookup failed", zap.Error(err))
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expires := time.Now().Add(tokenTTL)
	token, err := jwtMiddleware.Issue(s.secret, user.ID, user.Role, tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.log.Info("user logged in", zap.String("uid", user.ID), zap.String("role", user.Role))

	return &LoginResponse{
		Token: token,
		User: UserInfo{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
		Expires: expires,
	}, nil
}
