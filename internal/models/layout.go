package models

// Marker labels attached to a drawn node
const (
	MarkerTop   = "Top"
	MarkerFront = "Front"
	MarkerRear  = "Rear"
)

// TerminalNull is drawn after the last node of a linked list
const TerminalNull = "NULL"

// LayoutNode is one drawn element of a structure
type LayoutNode struct {
	Index     int      `json:"index"`
	Label     string   `json:"label"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Level     int      `json:"level,omitempty"`
	Markers   []string `json:"markers,omitempty"`
	Removable bool     `json:"removable,omitempty"`
}

// LayoutEdge connects two drawn nodes by index
type LayoutEdge struct {
	From int     `json:"from"`
	To   int     `json:"to"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
}

// Layout is the declarative rendering of a structure's contents
type Layout struct {
	Kind     StructureID  `json:"kind"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Nodes    []LayoutNode `json:"nodes"`
	Edges    []LayoutEdge `json:"edges,omitempty"`
	Terminal string       `json:"terminal,omitempty"`
	Hidden   int          `json:"hidden,omitempty"` // elements kept in state but outside the drawn template
}

// StructureState is the live contents of one simulator
type StructureState struct {
	Kind        StructureID `json:"kind"`
	Items       []string    `json:"items"`
	Length      int         `json:"length"`
	MaxLength   int         `json:"maxLength,omitempty"`
	Positional  bool        `json:"positional"`
	AddLabel    string      `json:"addLabel"`
	RemoveLabel string      `json:"removeLabel,omitempty"`
	Layout      Layout      `json:"layout"`
}

// WorkspaceState is a point-in-time view of a visitor's workspace
type WorkspaceState struct {
	WorkspaceID  string         `json:"workspaceId"`
	Selected     StructureID    `json:"selected"`
	Info         StructureInfo  `json:"info"`
	Structure    StructureState `json:"structure"`
	SchemaText   string         `json:"schemaText"`
	Generating   bool           `json:"generating"`
	SavedSchemas []SavedSchema  `json:"savedSchemas"`
}
