package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// UserRepository implements ports.UserRepository on PostgreSQL.
type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	Username    string     `db:"username"`
	Password    string     `db:"password"`
	FirstName   string     `db:"first_name"`
	LastName    string     `db:"last_name"`
	Phone       string     `db:"phone"`
	JoinAt      time.Time  `db:"join_at"`
	LastLoginAt *time.Time `db:"last_login_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		Username:     r.Username,
		PasswordHash: r.Password,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Phone:        r.Phone,
		JoinAt:       r.JoinAt,
		LastLoginAt:  r.LastLoginAt,
	}
}

// Create inserts a user. A unique violation on the username index becomes
// domain.ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (username, password, first_name, last_name, phone, join_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING username, password, first_name, last_name, phone, join_at, last_login_at`

	var row userRow
	err := sqlx.GetContext(ctx, r.db, &row, query,
		user.Username, user.PasswordHash, user.FirstName, user.LastName, user.Phone, user.JoinAt, user.LastLoginAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) FindPasswordHash(ctx context.Context, username string) (string, error) {
	query := `
		SELECT password
		FROM users
		WHERE lower(username) = lower($1)`

	var hash string
	if err := sqlx.GetContext(ctx, r.db, &hash, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrUserNotFound
		}
		return "", fmt.Errorf("find password: %w", err)
	}
	return hash, nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, username string, at time.Time) error {
	query := `
		UPDATE users
		SET last_login_at = $2
		WHERE lower(username) = lower($1)`

	res, err := r.db.ExecContext(ctx, query, username, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE lower(username) = lower($1))`

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, username); err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.UserSummary, error) {
	query := `
		SELECT username, first_name, last_name
		FROM users
		ORDER BY username`

	var rows []struct {
		Username  string `db:"username"`
		FirstName string `db:"first_name"`
		LastName  string `db:"last_name"`
	}
	if err := sqlx.SelectContext(ctx, r.db, &rows, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]domain.UserSummary, len(rows))
	for i, row := range rows {
		out[i] = domain.UserSummary{Username: row.Username, FirstName: row.FirstName, LastName: row.LastName}
	}
	return out, nil
}

func (r *UserRepository) FindProfile(ctx context.Context, username string) (*domain.UserProfile, error) {
	query := `
		SELECT username, first_name, last_name, phone, join_at, last_login_at
		FROM users
		WHERE lower(username) = lower($1)`

	var row struct {
		Username    string     `db:"username"`
		FirstName   string     `db:"first_name"`
		LastName    string     `db:"last_name"`
		Phone       string     `db:"phone"`
		JoinAt      time.Time  `db:"join_at"`
		LastLoginAt *time.Time `db:"last_login_at"`
	}
	if err := sqlx.GetContext(ctx, r.db, &row, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &domain.UserProfile{
		Username:    row.Username,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		Phone:       row.Phone,
		JoinAt:      row.JoinAt,
		LastLoginAt: row.LastLoginAt,
	}, nil
}
