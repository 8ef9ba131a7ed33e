// Package snapshot materializes the full local dataset in memory as input
// for export and remote projection.
package snapshot

import (
	"context"
	"fmt"

	"github.com/jmhart/boxinv/internal/domain"
)

// ItemView is an item with every reference resolved to its display name.
type ItemView struct {
	domain.Item
	CategoryName string
	RoomName     string
	SectorName   string
	ShelfName    string
	BoxTypeName  string
	BoxName      string
}

// Snapshot is a point-in-time copy of everything in the store. Slices are in
// deterministic (case-insensitive name) order as returned by the stores.
type Snapshot struct {
	Items      []ItemView
	Boxes      []*domain.Box
	Categories []*domain.Ref
	Rooms      []*domain.Ref
	Sectors    []*domain.Ref
	Shelves    []*domain.Ref
	BoxTypes   []*domain.Ref
}

// RefNames returns the display names of a reference slice, preserving order.
func RefNames(refs []*domain.Ref) []string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.Name)
	}
	return names
}

// BoxNames returns the display names of every box, preserving order.
func (s *Snapshot) BoxNames() []string {
	names := make([]string, 0, len(s.Boxes))
	for _, b := range s.Boxes {
		names = append(names, b.Name)
	}
	return names
}

type itemLister interface {
	List(ctx context.Context) ([]*domain.Item, error)
}

type boxLister interface {
	List(ctx context.Context) ([]*domain.Box, error)
}

type refLister interface {
	ListByKind(ctx context.Context, kind domain.RefKind) ([]*domain.Ref, error)
}

// Load reads the entire dataset and resolves reference IDs to names.
func Load(ctx context.Context, items itemLister, boxes boxLister, refs refLister) (*Snapshot, error) {
	snap := &Snapshot{}

	var err error
	byKind := make(map[domain.RefKind][]*domain.Ref, len(domain.RefKinds))
	for _, kind := range domain.RefKinds {
		byKind[kind], err = refs.ListByKind(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s refs: %w", kind, err)
		}
	}
	snap.Categories = byKind[domain.KindCategory]
	snap.Rooms = byKind[domain.KindRoom]
	snap.Sectors = byKind[domain.KindSector]
	snap.Shelves = byKind[domain.KindShelf]
	snap.BoxTypes = byKind[domain.KindBoxType]

	snap.Boxes, err = boxes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load boxes: %w", err)
	}

	refNames := make(map[int64]string)
	for _, kindRefs := range byKind {
		for _, r := range kindRefs {
			refNames[r.ID] = r.Name
		}
	}
	boxNames := make(map[int64]string, len(snap.Boxes))
	for _, b := range snap.Boxes {
		boxNames[b.ID] = b.Name
	}

	list, err := items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	snap.Items = make([]ItemView, 0, len(list))
	for _, item := range list {
		view := ItemView{Item: *item}
		if item.CategoryID != nil {
			view.CategoryName = refNames[*item.CategoryID]
		}
		if item.RoomID != nil {
			view.RoomName = refNames[*item.RoomID]
		}
		if item.SectorID != nil {
			view.SectorName = refNames[*item.SectorID]
		}
		if item.ShelfID != nil {
			view.ShelfName = refNames[*item.ShelfID]
		}
		if item.BoxTypeID != nil {
			view.BoxTypeName = refNames[*item.BoxTypeID]
		}
		if item.BoxID != nil {
			view.BoxName = boxNames[*item.BoxID]
		}
		snap.Items = append(snap.Items, view)
	}

	return snap, nil
}
