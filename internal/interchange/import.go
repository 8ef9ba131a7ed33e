package interchange

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jmhart/boxinv/internal/db"
	"github.com/jmhart/boxinv/internal/domain"
	"github.com/jmhart/boxinv/internal/imagestore"
	"github.com/jmhart/boxinv/internal/reconcile"
	"github.com/jmhart/boxinv/internal/store"
)

// Pending is a staged import: the package has been unpacked and its metadata
// parsed, but nothing has been applied. Apply or Cancel it.
type Pending struct {
	Token string
	Dir   string
	// Meta is nil when the package carries no metadata file. In that case
	// there is nothing to preview and the caller may apply immediately.
	Meta *Metadata
}

// NeedsConfirmation reports whether the package carries a metadata preview
// the user should confirm before the destructive apply step.
func (p *Pending) NeedsConfirmation() bool {
	return p.Meta != nil
}

type Importer struct {
	db     *sql.DB
	images imagestore.ImageStore
	logger *slog.Logger
}

func NewImporter(database *sql.DB, images imagestore.ImageStore, logger *slog.Logger) *Importer {
	return &Importer{db: database, images: images, logger: logger}
}

// Stage unpacks the archive into a scratch directory and parses the
// metadata file when present. No local state is mutated.
func (i *Importer) Stage(ctx context.Context, archivePath string) (*Pending, error) {
	scratch, err := os.MkdirTemp("", "boxinv-import-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	if err := unzip(archivePath, scratch); err != nil {
		if rerr := os.RemoveAll(scratch); rerr != nil {
			i.logger.Error("failed to remove scratch directory", "dir", scratch, "error", rerr)
		}
		return nil, err
	}

	pending := &Pending{Token: uuid.NewString(), Dir: scratch}

	metaData, err := os.ReadFile(filepath.Join(scratch, MetaFile))
	switch {
	case os.IsNotExist(err):
		// No metadata: documented fallback, the caller may apply without a
		// preview.
		i.logger.Warn("package has no metadata file", "archive", archivePath)
	case err != nil:
		i.cleanup(pending)
		return nil, fmt.Errorf("failed to read %s: %w", MetaFile, err)
	default:
		meta := &Metadata{}
		if err := json.Unmarshal(metaData, meta); err != nil {
			i.cleanup(pending)
			return nil, fmt.Errorf("failed to parse %s: %w", MetaFile, err)
		}
		pending.Meta = meta
	}

	i.logger.Info("import staged", "token", pending.Token, "preview", pending.Meta != nil)
	return pending, nil
}

// Apply replaces all items and the category vocabulary with the package
// contents inside one transaction. Boxes and the remaining reference kinds
// are reconciled, not replaced. The whole package is parsed and every image
// read before the destructive step begins.
func (i *Importer) Apply(ctx context.Context, pending *Pending) error {
	defer i.cleanup(pending)

	itemData, err := os.ReadFile(filepath.Join(pending.Dir, ItemsFile))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ItemsFile, err)
	}

	var records []ItemRecord
	if err := json.Unmarshal(itemData, &records); err != nil {
		return fmt.Errorf("failed to parse %s: %w", ItemsFile, err)
	}

	images, err := i.loadImages(pending.Dir, records)
	if err != nil {
		return err
	}

	created := 0
	skipped := 0
	err = db.WithTx(ctx, i.db, func(tx *sql.Tx) error {
		items := store.NewItemStore(tx)
		boxes := store.NewBoxStore(tx)
		refs := store.NewRefStore(tx)
		resolver := reconcile.NewResolver(refs, boxes)

		if err := items.DeleteAll(ctx); err != nil {
			return err
		}

		// Categories are replaced wholesale: the metadata list is the
		// authoritative vocabulary, unused entries included.
		if err := refs.DeleteAllByKind(ctx, domain.KindCategory); err != nil {
			return err
		}
		if pending.Meta != nil {
			for _, name := range pending.Meta.Categories {
				if _, err := resolver.Resolve(ctx, domain.KindCategory, name); err != nil {
					return err
				}
			}
		}

		for _, rec := range records {
			name := strings.TrimSpace(rec.Name)
			if name == "" {
				skipped++
				continue
			}

			category, err := resolver.Resolve(ctx, domain.KindCategory, rec.Category)
			if err != nil {
				return err
			}
			box, err := resolver.ResolveBox(ctx, rec.Box)
			if err != nil {
				return err
			}

			params := store.ItemParams{
				Name:        name,
				Description: rec.Description,
				Barcode:     rec.Barcode,
			}
			if category != nil {
				params.CategoryID = &category.ID
			}
			if box != nil {
				params.BoxID = &box.ID
			}
			if _, ok := images[rec.Image]; ok {
				params.ImageKey = rec.Image
			}

			if _, err := items.Create(ctx, params); err != nil {
				return err
			}
			created++
		}

		if _, err := boxes.EnsureSentinel(ctx); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("import apply failed: %w", err)
	}

	for key, data := range images {
		if err := i.images.Save(ctx, key, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("failed to store image %s: %w", key, err)
		}
	}

	i.logger.Info("import applied", "token", pending.Token, "created", created, "skipped", skipped, "images", len(images))
	return nil
}

// Cancel discards the scratch directory without mutating anything.
func (i *Importer) Cancel(pending *Pending) error {
	i.logger.Info("import cancelled", "token", pending.Token)
	if err := os.RemoveAll(pending.Dir); err != nil {
		return fmt.Errorf("failed to remove scratch directory: %w", err)
	}
	return nil
}

// loadImages reads every referenced image file up front so that apply never
// hits a read error after the destructive step has started. A referenced
// file that is absent from the package means "no image", not an error.
func (i *Importer) loadImages(dir string, records []ItemRecord) (map[string][]byte, error) {
	images := make(map[string][]byte)
	for _, rec := range records {
		if rec.Image == "" {
			continue
		}
		if rec.Image != filepath.Base(rec.Image) {
			return nil, fmt.Errorf("item %q has an unsafe image reference %q", rec.Name, rec.Image)
		}
		if _, ok := images[rec.Image]; ok {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, rec.Image))
		if os.IsNotExist(err) {
			i.logger.Warn("referenced image missing from package", "image", rec.Image)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", rec.Image, err)
		}
		images[rec.Image] = data
	}
	return images, nil
}

func (i *Importer) cleanup(pending *Pending) {
	if err := os.RemoveAll(pending.Dir); err != nil && !os.IsNotExist(err) {
		i.logger.Error("failed to remove scratch directory", "dir", pending.Dir, "error", err)
	}
}
