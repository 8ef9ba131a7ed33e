// Package interchange reads and writes the portable package format: a zip
// archive holding the item records, a tab-delimited mirror, a metadata file
// describing provenance and the full reference vocabulary, and one image
// file per item that has one.
package interchange

import (
	"strings"
	"time"
)

const (
	ItemsFile = "items.json"
	ItemsTSV  = "items.tsv"
	MetaFile  = "meta.json"
	MetaTSV   = "meta.tsv"
	ImageExt  = ".jpg"
)

// ItemRecord is one exported item. Field order is fixed: name, description,
// category, barcode, image, box. References are carried as display names,
// not IDs. Image is the name of a sibling file in the package, empty when
// the item has no image.
type ItemRecord struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Barcode     string `json:"barcode"`
	Image       string `json:"image"`
	Box         string `json:"box"`
}

// itemTSVHeader matches the ItemRecord field order.
var itemTSVHeader = []string{"name", "description", "category", "barcode", "image", "box"}

func (r ItemRecord) tsvFields() []string {
	return []string{r.Name, r.Description, r.Category, r.Barcode, r.Image, r.Box}
}

// Metadata describes a package: who produced it, when, on what device, and
// the complete reference vocabulary of every kind. Entries not used by any
// item are listed too, so the vocabulary survives a round trip.
type Metadata struct {
	ExportedBy  string     `json:"exportedBy"`
	Version     string     `json:"version"`
	ExportedAt  time.Time  `json:"exportedAt"`
	Device      DeviceInfo `json:"device"`
	TotalItems  int        `json:"totalItems"`
	TotalImages int        `json:"totalImages"`
	Categories  []string   `json:"categories"`
	Boxes       []string   `json:"boxes"`
	Rooms       []string   `json:"rooms"`
	Sectors     []string   `json:"sectors"`
	Shelves     []string   `json:"shelves"`
	BoxTypes    []string   `json:"boxTypes"`
}

type DeviceInfo struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
}

// sanitizeTSV keeps tab-delimited rows one line per record.
func sanitizeTSV(s string) string {
	replacer := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	return replacer.Replace(s)
}

func tsvRow(fields []string) string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = sanitizeTSV(f)
	}
	return strings.Join(out, "\t")
}
