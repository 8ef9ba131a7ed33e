// Package cloud projects a dataset snapshot onto a remote shared record
// graph: one share record plus one flat child record per entity, uploaded
// into a freshly reset zone in bounded atomic batches.
package cloud

import "context"

// BatchLimit is the remote service's per-operation record ceiling. Batches
// never exceed it.
const BatchLimit = 400

// Record types, one per entity kind plus the share object itself.
const (
	TypeItem     = "Item"
	TypeCategory = "Category"
	TypeRoom     = "Room"
	TypeSector   = "Sector"
	TypeShelf    = "Shelf"
	TypeBox      = "Box"
	TypeBoxType  = "BoxType"
	TypeShare    = "Share"
)

// Zone is an isolated, independently resettable namespace on the remote
// service.
type Zone struct {
	Name string `json:"name"`
}

// Record is a flat remote record: scalar fields only, relationships exist
// only in the local store. Parent is the share record's name for every
// record except the share itself.
type Record struct {
	Name   string            `json:"name"`
	Type   string            `json:"type"`
	Parent string            `json:"parent,omitempty"`
	Fields map[string]string `json:"fields"`
}

// ConflictPolicy governs how the service treats concurrent modification of
// a record within a batch operation.
type ConflictPolicy string

// ConflictIfUnchanged fails the batch if the server's copy changed since it
// was last read. Appropriate after a zone reset, when nothing else should
// be writing.
const ConflictIfUnchanged ConflictPolicy = "ifUnchanged"

// BatchOptions configures one BatchModify call.
type BatchOptions struct {
	Atomic   bool
	Conflict ConflictPolicy
}

// ShareHandle identifies a completed share and carries its resolvable URL.
type ShareHandle struct {
	RecordName string
	Title      string
	URL        string
}

// RecordService is the remote object-record service.
//
// Implementations must make zone deletion a no-op for an absent zone and
// record enumeration of an absent zone an empty result, so that retrying a
// whole share after an interrupted reset is safe.
type RecordService interface {
	EnumerateZones(ctx context.Context) ([]Zone, error)
	CreateZone(ctx context.Context, zone string) error
	DeleteZone(ctx context.Context, zone string) error
	// EnumerateRecords returns one page of records plus a cursor for the
	// next page; an empty cursor ends the stream.
	EnumerateRecords(ctx context.Context, zone, cursor string) ([]Record, string, error)
	// BatchModify saves and deletes records in one all-or-nothing operation
	// when opts.Atomic is set. len(save)+len(del) must not exceed BatchLimit.
	BatchModify(ctx context.Context, zone string, save []Record, del []string, opts BatchOptions) error
	// ShareURL resolves the externally reachable URL for a share record.
	ShareURL(zone, shareName string) string
}
