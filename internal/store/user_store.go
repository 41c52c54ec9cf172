package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/stockgate/internal/domain"
)

// UserTable keeps the users of one access category. It satisfies
// recordstore.Persistence and recordstore.Appender for domain.UserRecord.
type UserTable struct {
	db       *sql.DB
	category domain.Category
}

func NewUserTable(db *sql.DB, category domain.Category) *UserTable {
	return &UserTable{db: db, category: category}
}

func (s *UserTable) Load(ctx context.Context) ([]domain.UserRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, identifier FROM users WHERE category = ? ORDER BY id ASC
	`, string(s.category))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var users []domain.UserRecord
	for rows.Next() {
		var u domain.UserRecord
		if err := rows.Scan(&u.Username, &u.Identifier); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (s *UserTable) Append(ctx context.Context, u domain.UserRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (category, username, identifier) VALUES (?, ?, ?)
	`, string(s.category), u.Username, u.Identifier)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *UserTable) SaveAll(ctx context.Context, users []domain.UserRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE category = ?`, string(s.category)); err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}
	for _, u := range users {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (category, username, identifier) VALUES (?, ?, ?)
		`, string(s.category), u.Username, u.Identifier)
		if err != nil {
			return fmt.Errorf("failed to insert user %q: %w", u.Username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit users: %w", err)
	}
	return nil
}
