// Package assistant talks to the generative-text services that draft a
// relational schema for the selected structure.
package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/terra-clan/ds-visualizer/internal/models"
)

// ErrEmptyResponse is returned when a provider answers without any text
var ErrEmptyResponse = errors.New("provider returned no text")

// Generator produces free-form text for a prompt.
// The returned text is treated as opaque by callers.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)

	// Name returns the provider name used in the registry
	Name() string
}

// BuildPrompt returns the instructions sent for a structure
func BuildPrompt(id models.StructureID) string {
	return fmt.Sprintf(`You are helping a student understand how the %[1]s data structure can be stored in a relational database.

Design a relational table mapping for a %[1]s:
- Explain in one or two sentences how the elements and their order (or links) are represented.
- Give the table definitions using SQL CREATE TABLE syntax, with primary keys, foreign keys and the columns needed to preserve ordering or relationships.
- Show one short example INSERT for a small instance.

Answer in markdown. Keep it concise.`, id)
}
