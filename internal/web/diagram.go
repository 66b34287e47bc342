package web

import (
	"fmt"

	"github.com/terra-clan/ds-visualizer/internal/models"
)

const (
	diagramPadding = 32.0
	boxSize        = 48.0
	stackBoxWidth  = 128.0
	stackBoxHeight = 40.0
	circleRadius   = 20.0
)

// Diagram is a layout converted to SVG coordinates
type Diagram struct {
	ViewBox  string
	Width    float64
	Height   float64
	Boxes    []Box
	Lines    []models.LayoutEdge
	Terminal *Label
	Hidden   int
	Empty    bool
}

// Box is one drawn node
type Box struct {
	Index     int
	Label     string
	Circle    bool
	X, Y      float64 // top-left for rectangles
	W, H      float64
	CX, CY    float64 // centre
	R         float64
	Markers   []Label
	Removable bool
}

// Label is positioned text
type Label struct {
	Text string
	X, Y float64
}

// NewDiagram maps a layout onto a padded SVG canvas
func NewDiagram(l models.Layout) Diagram {
	d := Diagram{
		Width:  l.Width + 2*diagramPadding,
		Height: l.Height + 2*diagramPadding,
		Hidden: l.Hidden,
		Empty:  len(l.Nodes) == 0,
	}

	circle := l.Kind == models.StructureTree || l.Kind == models.StructureGraph
	w, h := boxSize, boxSize
	if l.Kind == models.StructureStack {
		w, h = stackBoxWidth, stackBoxHeight
	}

	for _, n := range l.Nodes {
		b := Box{Index: n.Index, Label: n.Label, Circle: circle, Removable: n.Removable}
		if circle {
			b.CX, b.CY, b.R = n.X+diagramPadding, n.Y+diagramPadding, circleRadius
		} else {
			b.X, b.Y, b.W, b.H = n.X+diagramPadding, n.Y+diagramPadding, w, h
			b.CX, b.CY = b.X+w/2, b.Y+h/2
		}

		for i, m := range n.Markers {
			lbl := Label{Text: m}
			switch m {
			case models.MarkerTop:
				lbl.X, lbl.Y = b.X+w+8, b.CY
			default:
				lbl.X, lbl.Y = b.CX, b.Y-8-float64(i)*14
			}
			b.Markers = append(b.Markers, lbl)
		}
		d.Boxes = append(d.Boxes, b)
	}

	for _, e := range l.Edges {
		e.X1 += diagramPadding
		e.Y1 += diagramPadding
		e.X2 += diagramPadding
		e.Y2 += diagramPadding
		if !circle {
			// chain arrows leave the right edge of the previous box
			e.X1 += w
		}
		d.Lines = append(d.Lines, e)
	}

	if l.Terminal != "" && len(d.Boxes) > 0 {
		last := d.Boxes[len(d.Boxes)-1]
		d.Terminal = &Label{Text: l.Terminal, X: last.X + w + 24, Y: last.CY}
		d.Width += 48
	}

	if l.Kind == models.StructureStack {
		d.Width += 48
	}
	d.ViewBox = fmt.Sprintf("0 0 %.0f %.0f", d.Width, d.Height)
	return d
}
