// Package web renders the single visualizer page with html/template.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/terra-clan/ds-visualizer/internal/catalog"
	"github.com/terra-clan/ds-visualizer/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// refreshSeconds is the auto-refresh interval while a schema is being generated
const refreshSeconds = 2

// Renderer renders the page for a workspace snapshot
type Renderer struct {
	tmpl    *template.Template
	catalog *catalog.Catalog
}

// Page is the template data
type Page struct {
	State     models.WorkspaceState
	Linear    []models.StructureInfo
	NonLinear []models.StructureInfo
	Footer    models.Footer
	Diagram   Diagram
	Refresh   int
}

// NewRenderer parses the embedded templates
func NewRenderer(cat *catalog.Catalog) (*Renderer, error) {
	tmpl, err := template.New("page.html").Funcs(template.FuncMap{
		"slug": func(id models.StructureID) string { return id.Slug() },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{tmpl: tmpl, catalog: cat}, nil
}

// Render writes the full page. Output is buffered so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w io.Writer, state models.WorkspaceState) error {
	page := Page{
		State:     state,
		Linear:    r.catalog.ByCategory(models.CategoryLinear),
		NonLinear: r.catalog.ByCategory(models.CategoryNonLinear),
		Footer:    r.catalog.Footer(),
		Diagram:   NewDiagram(state.Structure.Layout),
	}
	if state.Generating {
		page.Refresh = refreshSeconds
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page.html", page); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
