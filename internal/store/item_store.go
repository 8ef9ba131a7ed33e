package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jmhart/boxinv/internal/domain"
)

type ItemStore struct {
	db DBTX
}

func NewItemStore(db DBTX) *ItemStore {
	return &ItemStore{db: db}
}

// ItemParams carries every owned field of an item for Create and Update.
type ItemParams struct {
	Name        string
	Description string
	Barcode     string
	ImageKey    string
	BoxID       *int64
	CategoryID  *int64
	RoomID      *int64
	SectorID    *int64
	ShelfID     *int64
	BoxTypeID   *int64
}

const itemColumns = `id, name, description, barcode, image_key,
	box_id, category_id, room_id, sector_id, shelf_id, box_type_id,
	created_at, last_updated`

func scanItem(row interface{ Scan(...any) error }) (*domain.Item, error) {
	item := &domain.Item{}
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Barcode, &item.ImageKey,
		&item.BoxID, &item.CategoryID, &item.RoomID, &item.SectorID, &item.ShelfID, &item.BoxTypeID,
		&item.CreatedAt, &item.LastUpdated)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemStore) Create(ctx context.Context, p ItemParams) (*domain.Item, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO items (name, description, barcode, image_key,
			box_id, category_id, room_id, sector_id, shelf_id, box_type_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Name, p.Description, p.Barcode, p.ImageKey,
		p.BoxID, p.CategoryID, p.RoomID, p.SectorID, p.ShelfID, p.BoxTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ItemStore) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

func (s *ItemStore) List(ctx context.Context) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY name COLLATE NOCASE ASC, barcode ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []*domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// Update replaces every owned field and bumps last_updated.
func (s *ItemStore) Update(ctx context.Context, id int64, p ItemParams) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET name = ?, description = ?, barcode = ?, image_key = ?,
			box_id = ?, category_id = ?, room_id = ?, sector_id = ?, shelf_id = ?, box_type_id = ?,
			last_updated = datetime('now')
		WHERE id = ?
	`, p.Name, p.Description, p.Barcode, p.ImageKey,
		p.BoxID, p.CategoryID, p.RoomID, p.SectorID, p.ShelfID, p.BoxTypeID, id)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("item not found")
	}

	return nil
}

// SetBox moves an item to a different box and bumps the item's last_updated.
// Touching the affected boxes' last_modified is the service layer's job, so
// that it happens for both the old and the new box.
func (s *ItemStore) SetBox(ctx context.Context, id int64, boxID *int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET box_id = ?, last_updated = datetime('now') WHERE id = ?
	`, boxID, id)
	if err != nil {
		return fmt.Errorf("failed to set item box: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("item not found")
	}

	return nil
}

// SetImage points the item at a stored image payload and bumps last_updated.
func (s *ItemStore) SetImage(ctx context.Context, id int64, imageKey string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET image_key = ?, last_updated = datetime('now') WHERE id = ?
	`, imageKey, id)
	if err != nil {
		return fmt.Errorf("failed to set item image: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("item not found")
	}

	return nil
}

func (s *ItemStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM items WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("item not found")
	}

	return nil
}

func (s *ItemStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM items`)
	if err != nil {
		return fmt.Errorf("failed to delete items: %w", err)
	}

	return nil
}

func (s *ItemStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func (s *ItemStore) CountWithImages(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE image_key != ''`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count items with images: %w", err)
	}
	return count, nil
}
