package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// LabelStore keeps the optional human-readable name of each box.
type LabelStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewLabelStore(db *sql.DB) *LabelStore {
	return &LabelStore{db: db, now: time.Now}
}

// Get reports the label of boxID and whether one is set.
func (s *LabelStore) Get(ctx context.Context, ownerID, boxID string) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `
		SELECT name FROM box_labels WHERE user_id = ? AND box_id = ?
	`, ownerID, boxID).Scan(&name)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get box label: %w", err)
	}
	return name, true, nil
}

// Set stores the trimmed name as the label of boxID. A blank name removes
// the label.
func (s *LabelStore) Set(ctx context.Context, ownerID, boxID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		if _, err := s.db.ExecContext(ctx, `
			DELETE FROM box_labels WHERE user_id = ? AND box_id = ?
		`, ownerID, boxID); err != nil {
			return fmt.Errorf("failed to delete box label: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO box_labels (user_id, box_id, name, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, box_id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at
	`, ownerID, boxID, name, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to set box label: %w", err)
	}
	return nil
}

// List returns every label of the owner keyed by box id.
func (s *LabelStore) List(ctx context.Context, ownerID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT box_id, name FROM box_labels WHERE user_id = ?
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list box labels: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	labels := make(map[string]string)
	for rows.Next() {
		var boxID, name string
		if err := rows.Scan(&boxID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan box label: %w", err)
		}
		labels[boxID] = name
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating box labels: %w", err)
	}

	return labels, nil
}
