package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/storagescout/internal/domain"
)

const itemColumns = `id, user_id, box_id, name, description, location, image_url, tags, created_at`

type ItemStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db, now: time.Now}
}

func (s *ItemStore) Create(ctx context.Context, in domain.NewItem) (*domain.Item, error) {
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (id, user_id, box_id, name, description, location, image_url, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, in.UserID, in.BoxID, in.Name, in.Description, in.Location, in.ImageURL, tags, s.now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return s.GetByID(ctx, in.UserID, id)
}

// GetByID returns nil, nil when the owner has no item with id.
func (s *ItemStore) GetByID(ctx context.Context, ownerID, id string) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM items WHERE user_id = ? AND id = ?
	`, ownerID, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// List returns every item of the owner, newest first.
func (s *ItemStore) List(ctx context.Context, ownerID string) ([]domain.Item, error) {
	return s.query(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE user_id = ? ORDER BY created_at DESC, rowid DESC
	`, ownerID)
}

func (s *ItemStore) ListByBox(ctx context.Context, ownerID, boxID string) ([]domain.Item, error) {
	return s.query(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE user_id = ? AND box_id = ? ORDER BY created_at DESC, rowid DESC
	`, ownerID, boxID)
}

func (s *ItemStore) query(ctx context.Context, q string, args ...any) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	items := []domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// Update applies the non-nil fields of patch.
func (s *ItemStore) Update(ctx context.Context, ownerID, id string, patch domain.ItemPatch) error {
	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		sets = append(sets, column+" = ?")
		args = append(args, v)
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Location != nil {
		set("location", *patch.Location)
	}
	if patch.BoxID != nil {
		set("box_id", *patch.BoxID)
	}
	if patch.ImageURL != nil {
		set("image_url", *patch.ImageURL)
	}
	if patch.Tags != nil {
		tags, err := encodeTags(*patch.Tags)
		if err != nil {
			return err
		}
		set("tags", tags)
	}

	if len(sets) == 0 {
		item, err := s.GetByID(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrItemNotFound
		}
		return nil
	}

	args = append(args, ownerID, id)
	result, err := s.db.ExecContext(ctx,
		"UPDATE items SET "+strings.Join(sets, ", ")+" WHERE user_id = ? AND id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	return expectOneRow(result)
}

func (s *ItemStore) Delete(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM items WHERE user_id = ? AND id = ?
	`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var (
		item      domain.Item
		tags      sql.NullString
		createdAt int64
	)
	err := row.Scan(&item.ID, &item.UserID, &item.BoxID, &item.Name, &item.Description,
		&item.Location, &item.ImageURL, &tags, &createdAt)
	if err != nil {
		return nil, err
	}

	if tags.Valid {
		if err := json.Unmarshal([]byte(tags.String), &item.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	if createdAt != 0 {
		item.CreatedAt = time.UnixMilli(createdAt).UTC()
	}
	return &item, nil
}

func encodeTags(tags []string) (sql.NullString, error) {
	if tags == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
