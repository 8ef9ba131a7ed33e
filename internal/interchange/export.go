package interchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/jmhart/boxinv/internal/domain"
	"github.com/jmhart/boxinv/internal/imagestore"
	"github.com/jmhart/boxinv/internal/snapshot"
)

// itemSource, boxSource and refSource are the store subsets the exporter
// reads from.
type itemSource interface {
	List(ctx context.Context) ([]*domain.Item, error)
}

type boxSource interface {
	List(ctx context.Context) ([]*domain.Box, error)
}

type refSource interface {
	ListByKind(ctx context.Context, kind domain.RefKind) ([]*domain.Ref, error)
}

type Exporter struct {
	items   itemSource
	boxes   boxSource
	refs    refSource
	images  imagestore.ImageStore
	version string
	logger  *slog.Logger
	now     func() time.Time
}

func NewExporter(items itemSource, boxes boxSource, refs refSource, images imagestore.ImageStore, version string, logger *slog.Logger) *Exporter {
	return &Exporter{
		items:   items,
		boxes:   boxes,
		refs:    refs,
		images:  images,
		version: version,
		logger:  logger,
		now:     time.Now,
	}
}

// Export writes a package archive into destDir and returns its path. The
// archive name encodes the export timestamp. An empty dataset produces a
// well-formed package with empty bodies.
func (e *Exporter) Export(ctx context.Context, destDir string) (string, error) {
	e.logger.Info("export started")

	snap, err := snapshot.Load(ctx, e.items, e.boxes, e.refs)
	if err != nil {
		return "", fmt.Errorf("failed to load snapshot: %w", err)
	}

	staging, err := os.MkdirTemp("", "boxinv-export-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			e.logger.Error("failed to remove staging directory", "dir", staging, "error", err)
		}
	}()

	records, imageCount, err := e.writeImages(ctx, snap, staging)
	if err != nil {
		return "", err
	}

	if err := writeItemFiles(staging, records); err != nil {
		return "", err
	}

	meta := e.buildMetadata(snap, len(records), imageCount)
	if err := writeMetaFiles(staging, meta); err != nil {
		return "", err
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	archivePath := filepath.Join(destDir,
		fmt.Sprintf("boxinv-export-%s.zip", e.now().UTC().Format("20060102-150405")))
	if err := zipDir(staging, archivePath); err != nil {
		return "", err
	}

	e.logger.Info("export complete", "archive", archivePath, "items", len(records), "images", imageCount)
	return archivePath, nil
}

// writeImages copies each item's image into the staging directory and
// returns the item records with their image references filled in.
func (e *Exporter) writeImages(ctx context.Context, snap *snapshot.Snapshot, staging string) ([]ItemRecord, int, error) {
	records := make([]ItemRecord, 0, len(snap.Items))
	imageCount := 0

	for _, view := range snap.Items {
		rec := ItemRecord{
			Name:        view.Name,
			Description: view.Description,
			Category:    view.CategoryName,
			Barcode:     view.Barcode,
			Box:         view.BoxName,
		}

		if view.ImageKey != "" {
			name := ImageFileName(view.Item)
			if err := e.copyImage(ctx, view.ImageKey, filepath.Join(staging, name)); err != nil {
				return nil, 0, fmt.Errorf("failed to export image for item %q: %w", view.Name, err)
			}
			rec.Image = name
			imageCount++
		}

		records = append(records, rec)
	}

	return records, imageCount, nil
}

func (e *Exporter) copyImage(ctx context.Context, key, destPath string) (err error) {
	rc, err := e.images.Get(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			e.logger.Error("failed to close image", "key", key, "error", cerr)
		}
	}()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, rc)
	return err
}

// ImageFileName names an item's image deterministically: by barcode when
// the item has one, by item ID otherwise. Stored image keys and exported
// package entries use the same name.
func ImageFileName(item domain.Item) string {
	if b := strings.TrimSpace(item.Barcode); b != "" {
		return b + ImageExt
	}
	return "item-" + strconv.FormatInt(item.ID, 10) + ImageExt
}

func writeItemFiles(staging string, records []ItemRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode item records: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, ItemsFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ItemsFile, err)
	}

	var sb strings.Builder
	sb.WriteString(tsvRow(itemTSVHeader))
	sb.WriteByte('\n')
	for _, rec := range records {
		sb.WriteString(tsvRow(rec.tsvFields()))
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(staging, ItemsTSV), []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ItemsTSV, err)
	}

	return nil
}

func (e *Exporter) buildMetadata(snap *snapshot.Snapshot, itemCount, imageCount int) Metadata {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return Metadata{
		ExportedBy:  "boxinv",
		Version:     e.version,
		ExportedAt:  e.now().UTC(),
		Device:      DeviceInfo{Hostname: hostname, OS: runtime.GOOS},
		TotalItems:  itemCount,
		TotalImages: imageCount,
		Categories:  snapshot.RefNames(snap.Categories),
		Boxes:       snap.BoxNames(),
		Rooms:       snapshot.RefNames(snap.Rooms),
		Sectors:     snapshot.RefNames(snap.Sectors),
		Shelves:     snapshot.RefNames(snap.Shelves),
		BoxTypes:    snapshot.RefNames(snap.BoxTypes),
	}
}

func writeMetaFiles(staging string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, MetaFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", MetaFile, err)
	}

	rows := [][]string{
		{"exportedBy", meta.ExportedBy},
		{"version", meta.Version},
		{"exportedAt", meta.ExportedAt.Format(time.RFC3339)},
		{"hostname", meta.Device.Hostname},
		{"os", meta.Device.OS},
		{"totalItems", strconv.Itoa(meta.TotalItems)},
		{"totalImages", strconv.Itoa(meta.TotalImages)},
		{"categories", strings.Join(meta.Categories, ", ")},
		{"boxes", strings.Join(meta.Boxes, ", ")},
		{"rooms", strings.Join(meta.Rooms, ", ")},
		{"sectors", strings.Join(meta.Sectors, ", ")},
		{"shelves", strings.Join(meta.Shelves, ", ")},
		{"boxTypes", strings.Join(meta.BoxTypes, ", ")},
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(tsvRow(row))
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(staging, MetaTSV), []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", MetaTSV, err)
	}

	return nil
}
