package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/untibullet/project-hub/internal/models"
)

// FindUserConflict возвращает название занятого поля ("username", "email", "phone")
// или пустую строку. Пользователь excludeID в проверке не участвует.
func (r *Repository) FindUserConflict(ctx context.Context, username, email, phone, excludeID string) (string, error) {
	query := `
		SELECT username, email, phone
		FROM users
		WHERE (username = $1 OR (email <> '' AND email = $2) OR (phone <> '' AND phone = $3))
		  AND id <> $4
	`
	rows, err := r.pool.Query(ctx, query, username, email, phone, excludeID)
	if err != nil {
		return "", fmt.Errorf("failed to check user uniqueness: %w", err)
	}
	defer rows.Close()

	conflict := ""
	for rows.Next() {
		var u, e, p string
		if err := rows.Scan(&u, &e, &p); err != nil {
			return "", fmt.Errorf("failed to scan user: %w", err)
		}
		switch {
		case username != "" && u == username:
			return "username", nil
		case email != "" && e == email:
			conflict = "email"
		case phone != "" && p == phone && conflict == "":
			conflict = "phone"
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to iterate users: %w", err)
	}

	return conflict, nil
}

// CreateUser создает пользователя; занятый username, email или телефон дают ErrAlreadyExists
func (r *Repository) CreateUser(ctx context.Context, user models.User, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (id, username, password_hash, email, phone, display_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		user.ID, user.Username, passwordHash, user.Email, user.Phone, user.DisplayName,
	).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// GetCredentials получает пользователя и хеш пароля по username
func (r *Repository) GetCredentials(ctx context.Context, username string) (*models.Credentials, error) {
	query := `
		SELECT id, username, email, phone, display_name, created_at, last_seen, password_hash
		FROM users
		WHERE username = $1
	`
	var c models.Credentials
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&c.User.ID, &c.User.Username, &c.User.Email, &c.User.Phone, &c.User.DisplayName,
		&c.User.CreatedAt, &c.User.LastSeen, &c.PasswordHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user credentials: %w", err)
	}
	return &c, nil
}

// GetUser получает пользователя по ID
func (r *Repository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT id, username, email, phone, display_name, created_at, last_seen
		FROM users
		WHERE id = $1
	`
	var u models.User
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&u.ID, &u.Username, &u.Email, &u.Phone, &u.DisplayName, &u.CreatedAt, &u.LastSeen,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UpdateProfile меняет только переданные поля профиля
func (r *Repository) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("email", upd.Email)
	add("phone", upd.Phone)
	add("display_name", upd.DisplayName)
	add("password_hash", upd.PasswordHash)

	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastSeen обновляет время последней активности пользователя
func (r *Repository) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_seen = $1 WHERE id = $2`, at, userID)
	if err != nil {
		return fmt.Errorf("failed to update last seen: %w", err)
	}
	return nil
}
