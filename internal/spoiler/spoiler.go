// Package spoiler renders a finished seed as a document for trackers and
// humans: the level order, door layout, item locations by level and the
// playthrough spheres.
package spoiler

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/settings"
	"github.com/cory-johannsen/dkrando/internal/generator"
)

// Supported document formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Slot is one Isles entrance and the level behind it.
type Slot struct {
	Slot  int    `yaml:"slot" json:"slot"`
	Level string `yaml:"level" json:"level"`
	Key   string `yaml:"key" json:"key"`
	// EntryGBs is the golden banana count at the slot's B. Locker.
	EntryGBs int `yaml:"entry_gbs" json:"entry_gbs"`
}

// Level groups the items found in one level.
type Level struct {
	Level string                    `yaml:"level" json:"level"`
	Items []generator.ItemPlacement `yaml:"items" json:"items"`
}

// Sphere is one step of the playthrough.
type Sphere struct {
	Index int                       `yaml:"index" json:"index"`
	Items []generator.ItemPlacement `yaml:"items" json:"items"`
}

// Document is the serializable spoiler of a seed.
type Document struct {
	Seed          uint64                    `yaml:"seed" json:"seed"`
	Hash          string                    `yaml:"hash" json:"hash"`
	Attempts      int                       `yaml:"attempts" json:"attempts"`
	Settings      settings.Settings         `yaml:"settings" json:"settings"`
	StartingItems []string                  `yaml:"starting_items" json:"starting_items"`
	Slots         []Slot                    `yaml:"slots" json:"slots"`
	Doors         []generator.DoorPlacement `yaml:"doors" json:"doors"`
	Levels        []Level                   `yaml:"levels" json:"levels"`
	// Spheres lists only locations holding a progression-relevant item.
	Spheres []Sphere `yaml:"spheres,omitempty" json:"spheres,omitempty"`
}

// Build assembles the document for res.
//
// Precondition: res must be non-nil.
// Postcondition: Every item of res appears in exactly one Level entry.
// Spheres omit empty locations.
func Build(res *generator.Result) *Document {
	doc := &Document{
		Seed:          res.Seed,
		Hash:          res.Hash,
		Attempts:      res.Attempts,
		Settings:      res.Settings,
		StartingItems: res.Starting,
		Doors:         res.Doors,
	}
	for i, l := range res.LevelOrder {
		s := Slot{Slot: i + 1, Level: l, EntryGBs: res.Settings.EntryGB(i + 1)}
		if i < len(res.KeyOrder) {
			s.Key = res.KeyOrder[i]
		}
		doc.Slots = append(doc.Slots, s)
	}

	byLevel := map[string]int{}
	for _, it := range res.Items {
		idx, ok := byLevel[it.Level]
		if !ok {
			idx = len(doc.Levels)
			byLevel[it.Level] = idx
			doc.Levels = append(doc.Levels, Level{Level: it.Level})
		}
		doc.Levels[idx].Items = append(doc.Levels[idx].Items, it)
	}

	for i, sphere := range res.Spheres() {
		s := Sphere{Index: i}
		for _, it := range sphere {
			if it.Item == item.NoItem.String() {
				continue
			}
			s.Items = append(s.Items, it)
		}
		if len(s.Items) > 0 {
			doc.Spheres = append(doc.Spheres, s)
		}
	}
	return doc
}

// Encode writes doc to w in format.
//
// Postcondition: Returns an error for an unknown format or a write failure.
func Encode(w io.Writer, doc *Document, format string) error {
	switch format {
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding spoiler: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding spoiler: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown spoiler format %q", format)
}

// Decode reads a document written by Encode.
func Decode(r io.Reader, format string) (*Document, error) {
	doc := &Document{}
	var err error
	switch format {
	case FormatYAML, "":
		err = yaml.NewDecoder(r).Decode(doc)
	case FormatJSON:
		err = json.NewDecoder(r).Decode(doc)
	default:
		return nil, fmt.Errorf("unknown spoiler format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding spoiler: %w", err)
	}
	return doc, nil
}

// Extension returns the file extension for format.
func Extension(format string) string {
	if format == FormatJSON {
		return ".json"
	}
	return ".yaml"
}
