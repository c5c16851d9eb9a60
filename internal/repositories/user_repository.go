package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"taskdesk/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	// NamesByID powers the free-text search over assignee names.
	NamesByID(ctx context.Context) (map[int64]string, error)

	// Telegram helpers
	GetTelegramSettings(ctx context.Context, userID int64) (chatID int64, notify bool, err error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (name, email, password_hash, role_id, telegram_chat_id, notify_telegram, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, q,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.RoleID,
		user.TelegramChatID,
		user.NotifyTelegram,
	).Scan(&user.ID, &user.CreatedAt)
}

const selectUser = `
	SELECT id, name, email, password_hash, role_id,
	       COALESCE(telegram_chat_id,0), COALESCE(notify_telegram,TRUE), created_at
	FROM users
`

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID,
		&u.TelegramChatID, &u.NotifyTelegram, &u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.scanUser(r.DB.QueryRowContext(ctx, selectUser+` WHERE id = $1`, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanUser(r.DB.QueryRowContext(ctx, selectUser+` WHERE email = $1`, email))
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	rows, err := r.DB.QueryContext(ctx, selectUser+` ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID,
			&u.TelegramChatID, &u.NotifyTelegram, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) NamesByID(ctx context.Context) (map[int64]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (r *userRepository) GetTelegramSettings(ctx context.Context, userID int64) (int64, bool, error) {
	var chatID int64
	var notify bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(telegram_chat_id,0), COALESCE(notify_telegram,TRUE) FROM users WHERE id = $1`,
		userID,
	).Scan(&chatID, &notify)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, fmt.Errorf("user: %w", ErrNotFound)
		}
		return 0, false, err
	}
	return chatID, notify, nil
}
