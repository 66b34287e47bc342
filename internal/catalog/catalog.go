// Package catalog holds the static reference data for the simulated structures.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/ds-visualizer/internal/models"
)

// ErrUnknownStructure is returned for ids outside the catalog
var ErrUnknownStructure = errors.New("unknown structure")

//go:embed catalog.yaml
var embeddedCatalog []byte

var defaultCatalog = mustParse(embeddedCatalog)

// Catalog is an immutable table of structure metadata
type Catalog struct {
	structures []models.StructureInfo
	byID       map[models.StructureID]int
	footer     models.Footer
}

// catalogFile represents the YAML document layout
type catalogFile struct {
	Footer struct {
		LinearDefinition    string `yaml:"linear_definition"`
		NonLinearDefinition string `yaml:"non_linear_definition"`
	} `yaml:"footer"`
	Structures []structureEntry `yaml:"structures"`
}

type structureEntry struct {
	ID                   string `yaml:"id"`
	Category             string `yaml:"category"`
	Icon                 string `yaml:"icon"`
	LayoutNote           string `yaml:"layout_note"`
	Description          string `yaml:"description"`
	DescriptionLocalized string `yaml:"description_localized"`
	Complexity           struct {
		Access    string `yaml:"access"`
		Search    string `yaml:"search"`
		Insertion string `yaml:"insertion"`
		Deletion  string `yaml:"deletion"`
	} `yaml:"complexity"`
}

// Default returns the catalog compiled into the binary
func Default() *Catalog {
	return defaultCatalog
}

// Parse builds a catalog from a YAML document.
// Every known structure must appear exactly once.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	c := &Catalog{
		byID: make(map[models.StructureID]int, len(file.Structures)),
		footer: models.Footer{
			LinearDefinition:    file.Footer.LinearDefinition,
			NonLinearDefinition: file.Footer.NonLinearDefinition,
		},
	}

	for _, entry := range file.Structures {
		id := models.StructureID(entry.ID)
		if !id.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStructure, entry.ID)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("duplicate structure %q", entry.ID)
		}

		category := models.Category(entry.Category)
		if category != models.CategoryLinear && category != models.CategoryNonLinear {
			return nil, fmt.Errorf("structure %q: invalid category %q", entry.ID, entry.Category)
		}

		c.byID[id] = len(c.structures)
		c.structures = append(c.structures, models.StructureInfo{
			ID:                   id,
			Category:             category,
			Description:          entry.Description,
			DescriptionLocalized: entry.DescriptionLocalized,
			Icon:                 entry.Icon,
			LayoutNote:           entry.LayoutNote,
			Complexity: models.Complexity{
				Access:    entry.Complexity.Access,
				Search:    entry.Complexity.Search,
				Insertion: entry.Complexity.Insertion,
				Deletion:  entry.Complexity.Deletion,
			},
		})
	}

	for _, id := range models.StructureIDs {
		if _, ok := c.byID[id]; !ok {
			return nil, fmt.Errorf("structure %q missing from catalog", id)
		}
	}

	return c, nil
}

// LoadFile reads a catalog from a YAML file, e.g. to localize the descriptions
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("loaded catalog", "path", path, "structures", len(c.structures))
	return c, nil
}

func mustParse(data []byte) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog is invalid: %v", err))
	}
	return c
}

// All returns every structure in display order
func (c *Catalog) All() []models.StructureInfo {
	out := make([]models.StructureInfo, len(c.structures))
	copy(out, c.structures)
	return out
}

// Lookup returns the record for id
func (c *Catalog) Lookup(id models.StructureID) (models.StructureInfo, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return models.StructureInfo{}, false
	}
	return c.structures[idx], true
}

// ByCategory returns the structures of one category in display order
func (c *Catalog) ByCategory(category models.Category) []models.StructureInfo {
	var out []models.StructureInfo
	for _, s := range c.structures {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// Footer returns the category definitions
func (c *Catalog) Footer() models.Footer {
	return c.footer
}

// ParseStructureID resolves user input such as "linked-list", "LinkedList" or "linked_list"
func ParseStructureID(s string) (models.StructureID, error) {
	normalized := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, id := range models.StructureIDs {
		if id.Slug() == normalized {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStructure, s)
}
