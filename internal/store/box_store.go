package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmhart/boxinv/internal/domain"
)

type BoxStore struct {
	db DBTX
}

func NewBoxStore(db DBTX) *BoxStore {
	return &BoxStore{db: db}
}

func (s *BoxStore) Create(ctx context.Context, name string) (*domain.Box, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO boxes (name) VALUES (?)
	`, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create box: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *BoxStore) GetByID(ctx context.Context, id int64) (*domain.Box, error) {
	box := &domain.Box{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, room_id, sector_id, shelf_id, box_type_id, created_at, last_modified
		FROM boxes WHERE id = ?
	`, id).Scan(&box.ID, &box.Name, &box.RoomID, &box.SectorID, &box.ShelfID, &box.BoxTypeID,
		&box.CreatedAt, &box.LastModified)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get box: %w", err)
	}

	return box, nil
}

// GetByName matches case-insensitively against trimmed names.
func (s *BoxStore) GetByName(ctx context.Context, name string) (*domain.Box, error) {
	box := &domain.Box{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, room_id, sector_id, shelf_id, box_type_id, created_at, last_modified
		FROM boxes WHERE lower(trim(name)) = lower(trim(?))
	`, name).Scan(&box.ID, &box.Name, &box.RoomID, &box.SectorID, &box.ShelfID, &box.BoxTypeID,
		&box.CreatedAt, &box.LastModified)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get box by name: %w", err)
	}

	return box, nil
}

func (s *BoxStore) List(ctx context.Context) ([]*domain.Box, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, room_id, sector_id, shelf_id, box_type_id, created_at, last_modified
		FROM boxes ORDER BY name COLLATE NOCASE ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list boxes: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var boxes []*domain.Box
	for rows.Next() {
		box := &domain.Box{}
		if err := rows.Scan(&box.ID, &box.Name, &box.RoomID, &box.SectorID, &box.ShelfID,
			&box.BoxTypeID, &box.CreatedAt, &box.LastModified); err != nil {
			return nil, fmt.Errorf("failed to scan box: %w", err)
		}
		boxes = append(boxes, box)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating boxes: %w", err)
	}

	return boxes, nil
}

// SetLocation replaces the box's location references and bumps last_modified.
func (s *BoxStore) SetLocation(ctx context.Context, id int64, roomID, sectorID, shelfID, boxTypeID *int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE boxes
		SET room_id = ?, sector_id = ?, shelf_id = ?, box_type_id = ?, last_modified = datetime('now')
		WHERE id = ?
	`, roomID, sectorID, shelfID, boxTypeID, id)
	if err != nil {
		return fmt.Errorf("failed to update box location: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("box not found")
	}

	return nil
}

// TouchLastModified bumps last_modified, used when items move in or out.
func (s *BoxStore) TouchLastModified(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE boxes SET last_modified = datetime('now') WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to touch box: %w", err)
	}

	return nil
}

func (s *BoxStore) Delete(ctx context.Context, id int64) error {
	box, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if box == nil {
		return fmt.Errorf("box not found")
	}
	if strings.EqualFold(strings.TrimSpace(box.Name), domain.SentinelBoxName) {
		return fmt.Errorf("the %q box cannot be deleted", domain.SentinelBoxName)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM boxes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete box: %w", err)
	}

	return nil
}

// EnsureSentinel creates the sentinel box if it is missing and returns it.
func (s *BoxStore) EnsureSentinel(ctx context.Context) (*domain.Box, error) {
	box, err := s.GetByName(ctx, domain.SentinelBoxName)
	if err != nil {
		return nil, err
	}
	if box != nil {
		return box, nil
	}
	return s.Create(ctx, domain.SentinelBoxName)
}
