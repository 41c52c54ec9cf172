package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/stockgate/internal/domain"
)

// ItemTable keeps the inventory in the items table. It satisfies
// recordstore.Persistence[domain.Item].
type ItemTable struct {
	db *sql.DB
}

func NewItemTable(db *sql.DB) *ItemTable {
	return &ItemTable{db: db}
}

func (s *ItemTable) Load(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, quantity, price FROM items ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// SaveAll replaces the table content in one transaction, keeping the order of items.
func (s *ItemTable) SaveAll(ctx context.Context, items []domain.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	for pos, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO items (position, name, quantity, price) VALUES (?, ?, ?, ?)
		`, pos, item.Name, item.Quantity, item.Price.String())
		if err != nil {
			return fmt.Errorf("failed to insert item %q: %w", item.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit items: %w", err)
	}
	return nil
}
