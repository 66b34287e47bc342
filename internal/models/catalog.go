package models

import "strings"

// StructureID identifies one of the simulated data structures
type StructureID string

const (
	StructureArray      StructureID = "Array"
	StructureStack      StructureID = "Stack"
	StructureQueue      StructureID = "Queue"
	StructureLinkedList StructureID = "Linked-List"
	StructureTree       StructureID = "Tree"
	StructureGraph      StructureID = "Graph"
)

// StructureIDs lists every structure in display order
var StructureIDs = []StructureID{
	StructureArray,
	StructureStack,
	StructureQueue,
	StructureLinkedList,
	StructureTree,
	StructureGraph,
}

// DefaultStructure is selected when nothing has been persisted yet
const DefaultStructure = StructureArray

// Valid reports whether id names a known structure
func (id StructureID) Valid() bool {
	for _, known := range StructureIDs {
		if id == known {
			return true
		}
	}
	return false
}

// Slug returns the lower-case form used in URLs and storage keys ("linkedlist")
func (id StructureID) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(id)), "-", "")
}

// Category groups structures in the sidebar
type Category string

const (
	CategoryLinear    Category = "Linear"
	CategoryNonLinear Category = "Non-Linear"
)

// Complexity holds the asymptotic-complexity labels shown in the info panel
type Complexity struct {
	Access    string `json:"access"`
	Search    string `json:"search"`
	Insertion string `json:"insertion"`
	Deletion  string `json:"deletion"`
}

// StructureInfo is the static reference record for a structure
type StructureInfo struct {
	ID                   StructureID `json:"id"`
	Category             Category    `json:"category"`
	Description          string      `json:"description"`
	DescriptionLocalized string      `json:"descriptionLocalized"`
	Icon                 string      `json:"icon"`
	LayoutNote           string      `json:"layoutNote,omitempty"`
	Complexity           Complexity  `json:"complexity"`
}

// Footer carries the two category definitions shown under the page
type Footer struct {
	LinearDefinition    string `json:"linearDefinition"`
	NonLinearDefinition string `json:"nonLinearDefinition"`
}
