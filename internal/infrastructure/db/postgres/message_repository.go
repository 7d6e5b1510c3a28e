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

// MessageRepository implements ports.MessageRepository on PostgreSQL.
// Counterpart users are read through explicit joins with aliased columns.
type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

type messageRow struct {
	ID           int64      `db:"id"`
	FromUsername string     `db:"from_username"`
	ToUsername   string     `db:"to_username"`
	Body         string     `db:"body"`
	SentAt       time.Time  `db:"sent_at"`
	ReadAt       *time.Time `db:"read_at"`
}

func (r messageRow) toDomain() *domain.Message {
	return &domain.Message{
		ID:           r.ID,
		FromUsername: r.FromUsername,
		ToUsername:   r.ToUsername,
		Body:         r.Body,
		SentAt:       r.SentAt,
		ReadAt:       r.ReadAt,
	}
}

type detailRow struct {
	ID            int64      `db:"id"`
	Body          string     `db:"body"`
	SentAt        time.Time  `db:"sent_at"`
	ReadAt        *time.Time `db:"read_at"`
	FromUsername  string     `db:"from_username"`
	FromFirstName string     `db:"from_first_name"`
	FromLastName  string     `db:"from_last_name"`
	FromPhone     string     `db:"from_phone"`
	ToUsername    string     `db:"to_username"`
	ToFirstName   string     `db:"to_first_name"`
	ToLastName    string     `db:"to_last_name"`
	ToPhone       string     `db:"to_phone"`
}

type directedRow struct {
	ID        int64      `db:"id"`
	Body      string     `db:"body"`
	SentAt    time.Time  `db:"sent_at"`
	ReadAt    *time.Time `db:"read_at"`
	Username  string     `db:"username"`
	FirstName string     `db:"first_name"`
	LastName  string     `db:"last_name"`
	Phone     string     `db:"phone"`
}

// Create inserts a message. Both usernames are resolved to their stored
// spelling; if either user is missing, domain.ErrUserNotFound is returned.
func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	query := `
		INSERT INTO messages (from_username, to_username, body, sent_at)
		SELECT f.username, t.username, $3::text, $4::timestamptz
		FROM users AS f, users AS t
		WHERE lower(f.username) = lower($1) AND lower(t.username) = lower($2)
		RETURNING id, from_username, to_username, body, sent_at, read_at`

	var row messageRow
	err := sqlx.GetContext(ctx, r.db, &row, query, m.FromUsername, m.ToUsername, m.Body, m.SentAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isForeignKeyViolation(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return row.toDomain(), nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id int64) (*domain.Message, error) {
	query := `
		SELECT id, from_username, to_username, body, sent_at, read_at
		FROM messages
		WHERE id = $1`

	var row messageRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("find message: %w", err)
	}
	return row.toDomain(), nil
}

func (r *MessageRepository) FindDetail(ctx context.Context, id int64) (*domain.MessageDetail, error) {
	query := `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       f.username   AS from_username,
		       f.first_name AS from_first_name,
		       f.last_name  AS from_last_name,
		       f.phone      AS from_phone,
		       t.username   AS to_username,
		       t.first_name AS to_first_name,
		       t.last_name  AS to_last_name,
		       t.phone      AS to_phone
		FROM messages AS m
		JOIN users AS f ON f.username = m.from_username
		JOIN users AS t ON t.username = m.to_username
		WHERE m.id = $1`

	var row detailRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("find message detail: %w", err)
	}

	return &domain.MessageDetail{
		ID:     row.ID,
		Body:   row.Body,
		SentAt: row.SentAt,
		ReadAt: row.ReadAt,
		FromUser: domain.Contact{
			Username:  row.FromUsername,
			FirstName: row.FromFirstName,
			LastName:  row.FromLastName,
			Phone:     row.FromPhone,
		},
		ToUser: domain.Contact{
			Username:  row.ToUsername,
			FirstName: row.ToFirstName,
			LastName:  row.ToLastName,
			Phone:     row.ToPhone,
		},
	}, nil
}

// MarkRead sets read_at only while it is null and returns the stored value.
func (r *MessageRepository) MarkRead(ctx context.Context, id int64, at time.Time) (time.Time, error) {
	query := `
		UPDATE messages
		SET read_at = COALESCE(read_at, $2)
		WHERE id = $1
		RETURNING read_at`

	var readAt time.Time
	if err := sqlx.GetContext(ctx, r.db, &readAt, query, id, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, domain.ErrMessageNotFound
		}
		return time.Time{}, fmt.Errorf("mark read: %w", err)
	}
	return readAt, nil
}

func (r *MessageRepository) ListFrom(ctx context.Context, username string) ([]domain.DirectedMessage, error) {
	query := `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       u.username, u.first_name, u.last_name, u.phone
		FROM messages AS m
		JOIN users AS u ON u.username = m.to_username
		WHERE lower(m.from_username) = lower($1)
		ORDER BY m.sent_at, m.id`

	return r.listDirected(ctx, query, username)
}

func (r *MessageRepository) ListTo(ctx context.Context, username string) ([]domain.DirectedMessage, error) {
	query := `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       u.username, u.first_name, u.last_name, u.phone
		FROM messages AS m
		JOIN users AS u ON u.username = m.from_username
		WHERE lower(m.to_username) = lower($1)
		ORDER BY m.sent_at, m.id`

	return r.listDirected(ctx, query, username)
}

func (r *MessageRepository) listDirected(ctx context.Context, query, username string) ([]domain.DirectedMessage, error) {
	var rows []directedRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, username); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	out := make([]domain.DirectedMessage, len(rows))
	for i, row := range rows {
		out[i] = domain.DirectedMessage{
			ID:     row.ID,
			Body:   row.Body,
			SentAt: row.SentAt,
			ReadAt: row.ReadAt,
			Counterpart: domain.Contact{
				Username:  row.Username,
				FirstName: row.FirstName,
				LastName:  row.LastName,
				Phone:     row.Phone,
			},
		}
	}
	return out, nil
}
