package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jmhart/boxinv/internal/cloud"
	"github.com/jmhart/boxinv/internal/domain"
	"github.com/jmhart/boxinv/internal/imagestore"
	"github.com/jmhart/boxinv/internal/interchange"
	"github.com/jmhart/boxinv/internal/reconcile"
	"github.com/jmhart/boxinv/internal/snapshot"
	"github.com/jmhart/boxinv/internal/store"
)

// itemRepository is the subset of store.ItemStore that InventoryService requires.
type itemRepository interface {
	Create(ctx context.Context, p store.ItemParams) (*domain.Item, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	List(ctx context.Context) ([]*domain.Item, error)
	Update(ctx context.Context, id int64, p store.ItemParams) error
	SetBox(ctx context.Context, id int64, boxID *int64) error
	SetImage(ctx context.Context, id int64, imageKey string) error
	Delete(ctx context.Context, id int64) error
}

// boxRepository is the subset of store.BoxStore that InventoryService requires.
type boxRepository interface {
	Create(ctx context.Context, name string) (*domain.Box, error)
	GetByID(ctx context.Context, id int64) (*domain.Box, error)
	GetByName(ctx context.Context, name string) (*domain.Box, error)
	List(ctx context.Context) ([]*domain.Box, error)
	SetLocation(ctx context.Context, id int64, roomID, sectorID, shelfID, boxTypeID *int64) error
	TouchLastModified(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// refRepository is the subset of store.RefStore that InventoryService requires.
type refRepository interface {
	Create(ctx context.Context, kind domain.RefKind, name string) (*domain.Ref, error)
	GetByName(ctx context.Context, kind domain.RefKind, name string) (*domain.Ref, error)
	ListByKind(ctx context.Context, kind domain.RefKind) ([]*domain.Ref, error)
	Delete(ctx context.Context, id int64) error
}

// exporter and importer are the workflow engines behind the service's
// export and import operations.
type exporter interface {
	Export(ctx context.Context, destDir string) (string, error)
}

type importer interface {
	Stage(ctx context.Context, archivePath string) (*interchange.Pending, error)
	Apply(ctx context.Context, pending *interchange.Pending) error
	Cancel(pending *interchange.Pending) error
}

// ShareCreator uploads a snapshot to the remote sharing service. It is
// exported so that callers can leave it unset when sharing is not
// configured.
type ShareCreator interface {
	CreateShare(ctx context.Context, snap *snapshot.Snapshot, title string) (*cloud.ShareHandle, error)
}

// InventoryService orchestrates the stores and the interchange/sharing
// workflows. Workflows are not internally coordinated: callers must not run
// two of export, import-apply or share concurrently.
type InventoryService struct {
	items     itemRepository
	boxes     boxRepository
	refs      refRepository
	images    imagestore.ImageStore
	exporter  exporter
	importer  importer
	shares    ShareCreator // nil when cloud sharing is not configured
	exportDir string
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[string]*interchange.Pending
}

func NewInventoryService(
	items itemRepository,
	boxes boxRepository,
	refs refRepository,
	images imagestore.ImageStore,
	exp exporter,
	imp importer,
	shares ShareCreator,
	exportDir string,
	logger *slog.Logger,
) *InventoryService {
	return &InventoryService{
		items:     items,
		boxes:     boxes,
		refs:      refs,
		images:    images,
		exporter:  exp,
		importer:  imp,
		shares:    shares,
		exportDir: exportDir,
		logger:    logger,
		pending:   make(map[string]*interchange.Pending),
	}
}

// ItemInput carries an item's fields with references as display names, the
// way the UI layer submits them.
type ItemInput struct {
	Name        string
	Description string
	Barcode     string
	Category    string
	Room        string
	Sector      string
	Shelf       string
	BoxType     string
	Box         string
}

func (s *InventoryService) resolveItemParams(ctx context.Context, in ItemInput) (store.ItemParams, error) {
	params := store.ItemParams{
		Name:        in.Name,
		Description: in.Description,
		Barcode:     in.Barcode,
	}

	resolver := reconcile.NewResolver(s.refs, s.boxes)
	for _, ref := range []struct {
		kind domain.RefKind
		name string
		dst  **int64
	}{
		{domain.KindCategory, in.Category, &params.CategoryID},
		{domain.KindRoom, in.Room, &params.RoomID},
		{domain.KindSector, in.Sector, &params.SectorID},
		{domain.KindShelf, in.Shelf, &params.ShelfID},
		{domain.KindBoxType, in.BoxType, &params.BoxTypeID},
	} {
		resolved, err := resolver.Resolve(ctx, ref.kind, ref.name)
		if err != nil {
			return store.ItemParams{}, err
		}
		if resolved != nil {
			id := resolved.ID
			*ref.dst = &id
		}
	}

	box, err := resolver.ResolveBox(ctx, in.Box)
	if err != nil {
		return store.ItemParams{}, err
	}
	if box != nil {
		params.BoxID = &box.ID
	}

	return params, nil
}

func (s *InventoryService) CreateItem(ctx context.Context, in ItemInput) (*domain.Item, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("item name is required")
	}
	params, err := s.resolveItemParams(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve item references: %w", err)
	}

	item, err := s.items.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	if item.BoxID != nil {
		if err := s.boxes.TouchLastModified(ctx, *item.BoxID); err != nil {
			return nil, err
		}
	}
	return item, nil
}

func (s *InventoryService) UpdateItem(ctx context.Context, itemID int64, in ItemInput) (*domain.Item, error) {
	existing, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("item not found")
	}

	params, err := s.resolveItemParams(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve item references: %w", err)
	}
	params.ImageKey = existing.ImageKey

	if err := s.items.Update(ctx, itemID, params); err != nil {
		return nil, err
	}

	s.touchBoxes(ctx, existing.BoxID, params.BoxID)
	return s.items.GetByID(ctx, itemID)
}

// MoveItem reassigns the item's box, bumping the item's last-updated time
// and the last-modified time of both the old and the new box.
func (s *InventoryService) MoveItem(ctx context.Context, itemID int64, boxName string) (*domain.Item, error) {
	existing, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("item not found")
	}

	resolver := reconcile.NewResolver(s.refs, s.boxes)
	box, err := resolver.ResolveBox(ctx, boxName)
	if err != nil {
		return nil, err
	}

	var boxID *int64
	if box != nil {
		boxID = &box.ID
	}
	if err := s.items.SetBox(ctx, itemID, boxID); err != nil {
		return nil, err
	}

	s.touchBoxes(ctx, existing.BoxID, boxID)
	return s.items.GetByID(ctx, itemID)
}

// touchBoxes bumps last_modified on every distinct box involved in a move.
func (s *InventoryService) touchBoxes(ctx context.Context, before, after *int64) {
	seen := map[int64]bool{}
	for _, id := range []*int64{before, after} {
		if id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		if err := s.boxes.TouchLastModified(ctx, *id); err != nil {
			s.logger.Error("failed to touch box", "box_id", *id, "error", err)
		}
	}
}

func (s *InventoryService) DeleteItem(ctx context.Context, itemID int64) error {
	existing, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("item not found")
	}
	if err := s.items.Delete(ctx, itemID); err != nil {
		return err
	}
	s.touchBoxes(ctx, existing.BoxID, nil)
	return nil
}

func (s *InventoryService) ListItems(ctx context.Context) ([]*domain.Item, error) {
	return s.items.List(ctx)
}

func (s *InventoryService) GetItem(ctx context.Context, itemID int64) (*domain.Item, error) {
	return s.items.GetByID(ctx, itemID)
}

// AttachItemImage stores an image payload for the item and records its key.
// The key follows the same barcode-derived naming that export packages use.
func (s *InventoryService) AttachItemImage(ctx context.Context, itemID int64, r io.Reader) (*domain.Item, error) {
	existing, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("item not found")
	}

	key := interchange.ImageFileName(*existing)
	if err := s.images.Save(ctx, key, r); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}
	if err := s.items.SetImage(ctx, itemID, key); err != nil {
		return nil, err
	}
	return s.items.GetByID(ctx, itemID)
}

// OpenItemImage returns the item's stored image payload. Callers must close
// the reader.
func (s *InventoryService) OpenItemImage(ctx context.Context, itemID int64) (io.ReadCloser, error) {
	existing, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("item not found")
	}
	if existing.ImageKey == "" {
		return nil, fmt.Errorf("item has no image")
	}
	return s.images.Get(ctx, existing.ImageKey)
}

func (s *InventoryService) CreateBox(ctx context.Context, name, room, sector, shelf, boxType string) (*domain.Box, error) {
	if name == "" {
		return nil, fmt.Errorf("box name is required")
	}

	resolver := reconcile.NewResolver(s.refs, s.boxes)
	box, err := resolver.ResolveBox(ctx, name)
	if err != nil {
		return nil, err
	}

	var ids [4]*int64
	for i, ref := range []struct {
		kind domain.RefKind
		name string
	}{
		{domain.KindRoom, room},
		{domain.KindSector, sector},
		{domain.KindShelf, shelf},
		{domain.KindBoxType, boxType},
	} {
		resolved, err := resolver.Resolve(ctx, ref.kind, ref.name)
		if err != nil {
			return nil, err
		}
		if resolved != nil {
			id := resolved.ID
			ids[i] = &id
		}
	}

	if ids[0] != nil || ids[1] != nil || ids[2] != nil || ids[3] != nil {
		if err := s.boxes.SetLocation(ctx, box.ID, ids[0], ids[1], ids[2], ids[3]); err != nil {
			return nil, err
		}
	}

	return s.boxes.GetByID(ctx, box.ID)
}

func (s *InventoryService) ListBoxes(ctx context.Context) ([]*domain.Box, error) {
	return s.boxes.List(ctx)
}

func (s *InventoryService) DeleteBox(ctx context.Context, boxID int64) error {
	return s.boxes.Delete(ctx, boxID)
}

func (s *InventoryService) ListRefs(ctx context.Context, kind domain.RefKind) ([]*domain.Ref, error) {
	return s.refs.ListByKind(ctx, kind)
}

// DeleteRef removes a reference entity; items referencing it keep existing
// and lose the reference.
func (s *InventoryService) DeleteRef(ctx context.Context, refID int64) error {
	return s.refs.Delete(ctx, refID)
}

// Export produces an interchange package in the configured export directory
// and returns its path.
func (s *InventoryService) Export(ctx context.Context) (string, error) {
	return s.exporter.Export(ctx, s.exportDir)
}

// StageImport unpacks an archive and registers the pending import under its
// token until it is applied or cancelled.
func (s *InventoryService) StageImport(ctx context.Context, archivePath string) (*interchange.Pending, error) {
	pending, err := s.importer.Stage(ctx, archivePath)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pending[pending.Token] = pending
	s.mu.Unlock()
	return pending, nil
}

func (s *InventoryService) takePending(token string) (*interchange.Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.pending[token]
	if !ok {
		return nil, fmt.Errorf("no staged import with token %q", token)
	}
	delete(s.pending, token)
	return pending, nil
}

// ApplyImport runs the destructive apply step for a staged import. It is
// not cancellable once started.
func (s *InventoryService) ApplyImport(ctx context.Context, token string) error {
	pending, err := s.takePending(token)
	if err != nil {
		return err
	}
	return s.importer.Apply(ctx, pending)
}

// CancelImport discards a staged import without mutating anything.
func (s *InventoryService) CancelImport(token string) error {
	pending, err := s.takePending(token)
	if err != nil {
		return err
	}
	return s.importer.Cancel(pending)
}

// CreateShare snapshots the dataset and replaces the remote zone's contents
// with its projection.
func (s *InventoryService) CreateShare(ctx context.Context, title string) (*cloud.ShareHandle, error) {
	if s.shares == nil {
		return nil, fmt.Errorf("cloud sharing is not configured")
	}

	snap, err := snapshot.Load(ctx, s.items, s.boxes, s.refs)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return s.shares.CreateShare(ctx, snap, title)
}
