package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmhart/boxinv/internal/domain"
)

type RefStore struct {
	db DBTX
}

func NewRefStore(db DBTX) *RefStore {
	return &RefStore{db: db}
}

func (s *RefStore) Create(ctx context.Context, kind domain.RefKind, name string) (*domain.Ref, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO refs (kind, name) VALUES (?, ?)
	`, kind, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", kind, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *RefStore) GetByID(ctx context.Context, id int64) (*domain.Ref, error) {
	ref := &domain.Ref{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, name, created_at FROM refs WHERE id = ?
	`, id).Scan(&ref.ID, &ref.Kind, &ref.Name, &ref.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ref: %w", err)
	}

	return ref, nil
}

// GetByName matches case-insensitively against trimmed names. Returns nil
// when no entity of the kind has the normalized name.
func (s *RefStore) GetByName(ctx context.Context, kind domain.RefKind, name string) (*domain.Ref, error) {
	ref := &domain.Ref{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, name, created_at FROM refs
		WHERE kind = ? AND lower(trim(name)) = lower(trim(?))
	`, kind, name).Scan(&ref.ID, &ref.Kind, &ref.Name, &ref.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s by name: %w", kind, err)
	}

	return ref, nil
}

func (s *RefStore) ListByKind(ctx context.Context, kind domain.RefKind) ([]*domain.Ref, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, created_at FROM refs WHERE kind = ? ORDER BY name COLLATE NOCASE ASC
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s refs: %w", kind, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var refs []*domain.Ref
	for rows.Next() {
		ref := &domain.Ref{}
		if err := rows.Scan(&ref.ID, &ref.Kind, &ref.Name, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ref: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating refs: %w", err)
	}

	return refs, nil
}

// Delete removes a reference entity. Items and boxes referencing it keep
// existing and lose the reference (ON DELETE SET NULL).
func (s *RefStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM refs WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ref: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("ref not found")
	}

	return nil
}

func (s *RefStore) DeleteAllByKind(ctx context.Context, kind domain.RefKind) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM refs WHERE kind = ?
	`, kind)
	if err != nil {
		return fmt.Errorf("failed to delete %s refs: %w", kind, err)
	}

	return nil
}
