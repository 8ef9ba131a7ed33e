package cloud

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jmhart/boxinv/internal/snapshot"
)

// ShareManager replaces the contents of one remote zone with a snapshot's
// projection and publishes a share record for it.
type ShareManager struct {
	svc    RecordService
	zone   string
	logger *slog.Logger
}

func NewShareManager(svc RecordService, zone string, logger *slog.Logger) *ShareManager {
	return &ShareManager{svc: svc, zone: zone, logger: logger}
}

// CreateShare resets the zone and uploads the snapshot's projection plus a
// share record, in sequential batches of at most BatchLimit records. The
// share record is in the first batch, so children never precede their
// parent. On success the zone contains exactly the projection plus the
// share record.
//
// Failed uploads do not roll back batches that already committed; retrying
// the whole call is the recovery path, and is safe because the reset phase
// is idempotent.
func (m *ShareManager) CreateShare(ctx context.Context, snap *snapshot.Snapshot, title string) (*ShareHandle, error) {
	m.logger.Info("share started", "zone", m.zone, "title", title)

	if err := m.resetZone(ctx); err != nil {
		return nil, err
	}

	records := Project(snap)

	share := Record{
		Name: uuid.NewString(),
		Type: TypeShare,
		Fields: map[string]string{
			"title":            title,
			"publicPermission": "none",
		},
	}
	if len(records) > 0 {
		// The first projected record is the share root.
		share.Fields["rootRecord"] = records[0].Name
	}
	for i := range records {
		records[i].Parent = share.Name
	}

	upload := append([]Record{share}, records...)
	if err := m.uploadBatches(ctx, upload); err != nil {
		return nil, err
	}

	handle := &ShareHandle{
		RecordName: share.Name,
		Title:      title,
		URL:        m.svc.ShareURL(m.zone, share.Name),
	}
	m.logger.Info("share complete", "zone", m.zone, "records", len(upload), "url", handle.URL)
	return handle, nil
}

// resetZone clears the zone and recreates it empty. Deleting and recreating
// the zone, rather than only deleting its records, discards server-side
// change-tracking state left over from a previous share. Between the delete
// and the recreate the zone is absent; a failure there leaves it absent and
// the caller must retry the whole share.
func (m *ShareManager) resetZone(ctx context.Context) error {
	existing, err := m.enumerateAll(ctx)
	if err != nil {
		return fmt.Errorf("share failed while enumerating existing records: %w", err)
	}
	m.logger.Info("share reset", "zone", m.zone, "existing_records", len(existing))

	for start := 0; start < len(existing); start += BatchLimit {
		end := min(start+BatchLimit, len(existing))
		opts := BatchOptions{Atomic: true, Conflict: ConflictIfUnchanged}
		if err := m.svc.BatchModify(ctx, m.zone, nil, existing[start:end], opts); err != nil {
			return fmt.Errorf("share failed while deleting existing records: %w", err)
		}
	}

	if err := m.svc.DeleteZone(ctx, m.zone); err != nil {
		return fmt.Errorf("share failed while deleting zone %q: %w", m.zone, err)
	}
	if err := m.svc.CreateZone(ctx, m.zone); err != nil {
		return fmt.Errorf("share failed while recreating zone %q, the zone is absent until the share is retried: %w", m.zone, err)
	}

	return nil
}

func (m *ShareManager) enumerateAll(ctx context.Context) ([]string, error) {
	var names []string
	cursor := ""
	for {
		records, next, err := m.svc.EnumerateRecords(ctx, m.zone, cursor)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			names = append(names, rec.Name)
		}
		if next == "" {
			return names, nil
		}
		cursor = next
	}
}

// uploadBatches submits records sequentially so the share record commits
// before or together with every record that references it.
func (m *ShareManager) uploadBatches(ctx context.Context, records []Record) error {
	batch := 0
	for start := 0; start < len(records); start += BatchLimit {
		end := min(start+BatchLimit, len(records))
		batch++
		opts := BatchOptions{Atomic: true, Conflict: ConflictIfUnchanged}
		if err := m.svc.BatchModify(ctx, m.zone, records[start:end], nil, opts); err != nil {
			return fmt.Errorf("share failed while uploading batch %d: %w", batch, err)
		}
		m.logger.Debug("share batch uploaded", "zone", m.zone, "batch", batch, "records", end-start)
	}
	return nil
}
