package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/store"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UsersRepository struct {
	db  *store.DB
	log *zap.Logger
}

func NewUsersRepository(db *store.DB, log *zap.Logger) *UsersRepository {
	return &UsersRepository{db: db, log: log}
}

// GetByEmail returns nil, nil when no user has the address.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1`

	user := &User{}
	err := r.db.Pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// EnsureUser inserts the user unless the email is already taken. It reports
// whether a row was created.
func (r *UsersRepository) EnsureUser(ctx context.Context, user *User) (bool, error) {
	created := false
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE email = $1`, user.Email).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at`,
			user.Name, user.Email, user.PasswordHash, user.Role,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}
