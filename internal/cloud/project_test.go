package cloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmhart/boxinv/internal/domain"
	"github.com/jmhart/boxinv/internal/snapshot"
)

func TestProjectOrderAndTypes(t *testing.T) {
	snap := &snapshot.Snapshot{
		Items: []snapshot.ItemView{
			{Item: domain.Item{Name: "Drill", Barcode: "100001"}, CategoryName: "Tools", BoxName: "3"},
		},
		Categories: []*domain.Ref{{Name: "Tools"}},
		Rooms:      []*domain.Ref{{Name: "Basement"}},
		Sectors:    []*domain.Ref{{Name: "North wall"}},
		Shelves:    []*domain.Ref{{Name: "B2"}},
		Boxes:      []*domain.Box{{Name: "3"}},
		BoxTypes:   []*domain.Ref{{Name: "Euro crate"}},
	}

	records := Project(snap)
	require.Len(t, records, 7)

	types := make([]string, len(records))
	for i, rec := range records {
		types[i] = rec.Type
		assert.NotEmpty(t, rec.Name)
		assert.Empty(t, rec.Parent, "projection does not assign parents")
	}
	assert.Equal(t, []string{TypeItem, TypeCategory, TypeRoom, TypeSector, TypeShelf, TypeBox, TypeBoxType}, types)

	item := records[0]
	assert.Equal(t, "Drill", item.Fields["name"])
	assert.Equal(t, "100001", item.Fields["barcode"])
	assert.Equal(t, "Tools", item.Fields["category"])
	assert.Equal(t, "3", item.Fields["box"])
}

func TestProjectExcludesBlankItems(t *testing.T) {
	snap := &snapshot.Snapshot{
		Items: []snapshot.ItemView{
			{Item: domain.Item{Name: "  ", Description: ""}},
			{Item: domain.Item{Name: "", Description: "still shareable"}},
		},
	}

	records := Project(snap)
	require.Len(t, records, 1)
	assert.Equal(t, "still shareable", records[0].Fields["description"])
}

func TestProjectUniqueRecordNames(t *testing.T) {
	snap := &snapshot.Snapshot{
		Items: []snapshot.ItemView{
			{Item: domain.Item{Name: "A"}},
			{Item: domain.Item{Name: "A"}},
		},
	}

	records := Project(snap)
	require.Len(t, records, 2)
	assert.NotEqual(t, records[0].Name, records[1].Name)
}
