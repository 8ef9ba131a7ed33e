package cloud

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jmhart/boxinv/internal/domain"
	"github.com/jmhart/boxinv/internal/snapshot"
)

// Project flattens a snapshot into remote records in a fixed order: items,
// then categories, rooms, sectors, shelves, boxes, box types. Records whose
// identifying fields are all blank are excluded.
func Project(snap *snapshot.Snapshot) []Record {
	var records []Record

	for i := range snap.Items {
		if rec, ok := projectItem(&snap.Items[i]); ok {
			records = append(records, rec)
		}
	}

	records = appendRefRecords(records, TypeCategory, snap.Categories)
	records = appendRefRecords(records, TypeRoom, snap.Rooms)
	records = appendRefRecords(records, TypeSector, snap.Sectors)
	records = appendRefRecords(records, TypeShelf, snap.Shelves)

	for _, box := range snap.Boxes {
		name := strings.TrimSpace(box.Name)
		if name == "" {
			continue
		}
		records = append(records, Record{
			Name:   uuid.NewString(),
			Type:   TypeBox,
			Fields: map[string]string{"name": name},
		})
	}

	records = appendRefRecords(records, TypeBoxType, snap.BoxTypes)

	return records
}

func projectItem(view *snapshot.ItemView) (Record, bool) {
	// An item with neither name nor description identifies nothing and is
	// not worth sharing.
	if strings.TrimSpace(view.Name) == "" && strings.TrimSpace(view.Description) == "" {
		return Record{}, false
	}

	fields := map[string]string{
		"name":        view.Name,
		"description": view.Description,
		"barcode":     view.Barcode,
		"category":    view.CategoryName,
		"room":        view.RoomName,
		"sector":      view.SectorName,
		"shelf":       view.ShelfName,
		"boxType":     view.BoxTypeName,
		"box":         view.BoxName,
	}
	return Record{Name: uuid.NewString(), Type: TypeItem, Fields: fields}, true
}

func appendRefRecords(records []Record, recordType string, refs []*domain.Ref) []Record {
	for _, ref := range refs {
		name := strings.TrimSpace(ref.Name)
		if name == "" {
			continue
		}
		records = append(records, Record{
			Name:   uuid.NewString(),
			Type:   recordType,
			Fields: map[string]string{"name": name},
		})
	}
	return records
}
