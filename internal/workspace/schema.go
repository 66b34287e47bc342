package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/ds-visualizer/internal/assistant"
	"github.com/terra-clan/ds-visualizer/internal/models"
	"github.com/terra-clan/ds-visualizer/internal/storage"
)

// GenerationFailedText replaces the schema text when the provider fails
const GenerationFailedText = "Failed to generate schema. Please try again."

// savedNameLayout formats the timestamp in a saved schema's name
const savedNameLayout = "Jan 2, 2006 3:04:05 PM"

var (
	// ErrGenerationInProgress is returned while a previous generation is pending
	ErrGenerationInProgress = errors.New("schema generation already in progress")

	// ErrSavedSchemaNotFound is returned for an unknown saved schema id
	ErrSavedSchemaNotFound = errors.New("saved schema not found")
)

// Generate asks gen for a schema of the selected structure and stores the
// result as the schema text. Provider errors are logged and replaced by
// GenerationFailedText; only ErrGenerationInProgress is returned.
// A result that arrives after the selection changed is discarded.
func (w *Workspace) Generate(ctx context.Context, gen assistant.Generator, model string) error {
	req, err := w.beginGenerate()
	if err != nil {
		return err
	}
	w.finishGenerate(ctx, gen, model, req)
	return nil
}

// GenerateAsync starts a generation in the background and returns a channel
// closed once the result is stored. The background call is detached from
// ctx cancellation and has no deadline of its own.
func (w *Workspace) GenerateAsync(ctx context.Context, gen assistant.Generator, model string) (<-chan struct{}, error) {
	req, err := w.beginGenerate()
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	bg := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		w.finishGenerate(bg, gen, model, req)
	}()
	return done, nil
}

// Generating reports whether a generation is pending
func (w *Workspace) Generating() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generating
}

// SchemaText returns the current schema text
func (w *Workspace) SchemaText() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.schemaText
}

// SavedSchemas returns the history, most recent first
func (w *Workspace) SavedSchemas() []models.SavedSchema {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]models.SavedSchema, len(w.saved))
	copy(out, w.saved)
	return out
}

// SaveCurrent prepends the current schema text to the history.
// It returns false without changes when the text is empty.
func (w *Workspace) SaveCurrent(ctx context.Context) (models.SavedSchema, bool) {
	w.mu.Lock()
	w.touch()

	if w.schemaText == "" {
		w.mu.Unlock()
		return models.SavedSchema{}, false
	}

	now := w.now()
	entry := models.SavedSchema{
		ID:   newSavedID(now),
		Name: fmt.Sprintf("%s Schema - %s", w.selected, now.Format(savedNameLayout)),
		SQL:  w.schemaText,
	}
	w.saved = append([]models.SavedSchema{entry}, w.saved...)
	w.writeSlot(ctx, storage.KeySavedSchemas, w.saved)
	w.mu.Unlock()

	w.notifier.DataChanged(w.id)
	return entry, true
}

// LoadSaved copies a saved entry's text into the schema text; the history is untouched
func (w *Workspace) LoadSaved(ctx context.Context, savedID string) bool {
	w.mu.Lock()
	w.touch()

	idx := w.savedIndex(savedID)
	if idx < 0 {
		w.mu.Unlock()
		return false
	}
	w.schemaText = w.saved[idx].SQL
	w.writeSlot(ctx, storage.KeyCurrentSchema, w.schemaText)
	w.mu.Unlock()

	w.notifier.DataChanged(w.id)
	return true
}

// DeleteSaved removes a saved entry
func (w *Workspace) DeleteSaved(ctx context.Context, savedID string) bool {
	w.mu.Lock()
	w.touch()

	idx := w.savedIndex(savedID)
	if idx < 0 {
		w.mu.Unlock()
		return false
	}
	w.saved = append(w.saved[:idx:idx], w.saved[idx+1:]...)
	w.writeSlot(ctx, storage.KeySavedSchemas, w.saved)
	w.mu.Unlock()

	w.notifier.DataChanged(w.id)
	return true
}

func (w *Workspace) savedIndex(savedID string) int {
	for i, s := range w.saved {
		if s.ID == savedID {
			return i
		}
	}
	return -1
}

// generation remembers what a pending generation was started for
type generation struct {
	structure models.StructureID
	epoch     uint64
}

func (w *Workspace) beginGenerate() (generation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	if w.generating {
		return generation{}, ErrGenerationInProgress
	}
	w.generating = true
	return generation{structure: w.selected, epoch: w.epoch}, nil
}

// finishGenerate calls the provider without holding mu
func (w *Workspace) finishGenerate(ctx context.Context, gen assistant.Generator, model string, req generation) {
	w.notifier.DataChanged(w.id)

	start := time.Now()
	text, err := gen.Generate(ctx, model, assistant.BuildPrompt(req.structure))
	if err != nil {
		slog.Error("schema generation failed",
			"error", err,
			"workspace_id", w.id,
			"structure", req.structure,
			"provider", gen.Name(),
		)
		text = GenerationFailedText
	} else {
		slog.Info("schema generated",
			"workspace_id", w.id,
			"structure", req.structure,
			"provider", gen.Name(),
			"elapsed", time.Since(start),
		)
	}

	w.mu.Lock()
	w.generating = false
	if w.epoch == req.epoch {
		w.schemaText = text
		w.writeSlot(ctx, storage.KeyCurrentSchema, text)
	} else {
		slog.Info("discarding schema for a previous selection",
			"workspace_id", w.id,
			"structure", req.structure,
			"selected", w.selected,
		)
	}
	w.mu.Unlock()

	w.notifier.DataChanged(w.id)
}

func newSavedID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}
