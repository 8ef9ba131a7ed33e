package domain

import "time"

// RefKind identifies one of the named lookup vocabularies that Items and
// Boxes may reference.
type RefKind string

const (
	KindCategory RefKind = "category"
	KindRoom     RefKind = "room"
	KindSector   RefKind = "sector"
	KindShelf    RefKind = "shelf"
	KindBoxType  RefKind = "box_type"
)

// RefKinds lists every reference kind in a fixed order.
var RefKinds = []RefKind{KindCategory, KindRoom, KindSector, KindShelf, KindBoxType}

// SentinelBoxName is the name of the box representing "no physical box".
// Exactly one box with this name always exists and bulk operations never
// delete it.
const SentinelBoxName = "Unboxed"

// Ref is a deduplicated lookup value. Names are unique per kind ignoring
// case and surrounding whitespace.
type Ref struct {
	ID        int64
	Kind      RefKind
	Name      string
	CreatedAt time.Time
}

type Box struct {
	ID           int64
	Name         string
	RoomID       *int64
	SectorID     *int64
	ShelfID      *int64
	BoxTypeID    *int64
	CreatedAt    time.Time
	LastModified time.Time
}

type Item struct {
	ID          int64
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
	CreatedAt   time.Time
	LastUpdated time.Time
}
