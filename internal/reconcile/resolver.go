// Package reconcile implements lookup-or-create resolution of named
// reference entities with case-insensitive deduplication.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmhart/boxinv/internal/domain"
)

// refLookup is the subset of store.RefStore the resolver requires.
type refLookup interface {
	GetByName(ctx context.Context, kind domain.RefKind, name string) (*domain.Ref, error)
	Create(ctx context.Context, kind domain.RefKind, name string) (*domain.Ref, error)
}

// boxLookup is the subset of store.BoxStore the resolver requires.
type boxLookup interface {
	GetByName(ctx context.Context, name string) (*domain.Box, error)
	Create(ctx context.Context, name string) (*domain.Box, error)
}

// Resolver deduplicates reference entities by normalized name. Construct one
// per import/export operation: the cache assumes entity identity does not
// change for its lifetime, which holds within a single operation but not
// across them (deletions, renames).
type Resolver struct {
	refs   refLookup
	boxes  boxLookup
	cache  map[string]*domain.Ref
	bcache map[string]*domain.Box
}

func NewResolver(refs refLookup, boxes boxLookup) *Resolver {
	return &Resolver{
		refs:   refs,
		boxes:  boxes,
		cache:  make(map[string]*domain.Ref),
		bcache: make(map[string]*domain.Box),
	}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Resolve returns the existing entity of the given kind whose name matches
// candidateName ignoring case and surrounding whitespace, creating it with
// the trimmed original casing when absent. Empty input means "no reference"
// and yields (nil, nil).
func (r *Resolver) Resolve(ctx context.Context, kind domain.RefKind, candidateName string) (*domain.Ref, error) {
	trimmed := strings.TrimSpace(candidateName)
	if trimmed == "" {
		return nil, nil
	}

	key := string(kind) + "\x00" + normalize(trimmed)
	if ref, ok := r.cache[key]; ok {
		return ref, nil
	}

	ref, err := r.refs.GetByName(ctx, kind, trimmed)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		ref, err = r.refs.Create(ctx, kind, trimmed)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s %q: %w", kind, trimmed, err)
		}
	}

	r.cache[key] = ref
	return ref, nil
}

// ResolveBox is Resolve for boxes, which carry more state than plain refs
// but reconcile by name the same way. Existing boxes keep their location
// assignments.
func (r *Resolver) ResolveBox(ctx context.Context, candidateName string) (*domain.Box, error) {
	trimmed := strings.TrimSpace(candidateName)
	if trimmed == "" {
		return nil, nil
	}

	key := normalize(trimmed)
	if box, ok := r.bcache[key]; ok {
		return box, nil
	}

	box, err := r.boxes.GetByName(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	if box == nil {
		box, err = r.boxes.Create(ctx, trimmed)
		if err != nil {
			return nil, fmt.Errorf("failed to create box %q: %w", trimmed, err)
		}
	}

	r.bcache[key] = box
	return box, nil
}
