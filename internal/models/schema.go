package models

// SavedSchema is a named snapshot of generated schema text.
// The JSON field names are the persisted format of the history slot.
type SavedSchema struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	SQL  string `json:"sql"`
}

// SaveSchemaResponse is returned after saving the current schema
type SaveSchemaResponse struct {
	Saved   bool         `json:"saved"`
	Entry   *SavedSchema `json:"entry,omitempty"`
	History int          `json:"history"`
}

// SelectRequest changes the selected structure
type SelectRequest struct {
	ID string `json:"id"`
}

// RemoveRequest removes an element; Index is only used by positional structures
type RemoveRequest struct {
	Index *int `json:"index,omitempty"`
}

// SchemaState is the schema panel of a workspace
type SchemaState struct {
	Selected     StructureID   `json:"selected"`
	SchemaText   string        `json:"schemaText"`
	Generating   bool          `json:"generating"`
	SavedSchemas []SavedSchema `json:"savedSchemas"`
}

// MutationResponse is returned after an add or remove
type MutationResponse struct {
	Changed bool           `json:"changed"`
	State   StructureState `json:"state"`
}
