package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/samirwankhede/stayinsights/internal/store/users"
)

// AdminSeeder is the slice of the users repository the seeding needs.
type AdminSeeder interface {
	EnsureUser(ctx context.Context, user *users.User) (bool, error)
}

// CreateDefaultAdmin makes sure the configured admin account exists so a
// fresh deployment can log in and read unrestricted analytics.
func CreateDefaultAdmin(ctx context.Context, cfg *Config, repo AdminSeeder, log *zap.Logger) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminSuperUserPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	role := "admin"
	if len(cfg.ElevatedRoles) > 0 {
		role = cfg.ElevatedRoles[0]
	}
	created, err := repo.EnsureUser(ctx, &users.User{
		Name:         "Admin User",
		Email:        cfg.AdminEmail,
		PasswordHash: string(hashedPassword),
		Role:         role,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	if created {
		log.Info("default admin created", zap.String("email", cfg.AdminEmail))
	}
	return nil
}
