package simulator

import (
	"math"
	"math/bits"

	"github.com/terra-clan/ds-visualizer/internal/models"
)

// Geometry of the fixed visual templates
const (
	cellSize    = 48.0
	cellGap     = 8.0
	stackHeight = 40.0
	chainStep   = 96.0

	treeWidth      = 480.0
	treeLevelStep  = 100.0
	treeTop        = 32.0
	treeDrawnNodes = 7 // root plus two full levels

	graphCenter = 144.0
	graphRadius = 120.0
)

func arrayLayout(items []int) models.Layout {
	l := models.Layout{
		Kind:   models.StructureArray,
		Width:  float64(len(items)) * (cellSize + cellGap),
		Height: cellSize,
	}
	for i, v := range items {
		l.Nodes = append(l.Nodes, models.LayoutNode{
			Index:     i,
			Label:     formatInt(v),
			X:         float64(i) * (cellSize + cellGap),
			Removable: true,
		})
	}
	return l
}

// stackLayout draws index 0 at the bottom; the tail is the top
func stackLayout(items []int) models.Layout {
	n := len(items)
	l := models.Layout{
		Kind:   models.StructureStack,
		Width:  128,
		Height: float64(n) * (stackHeight + cellGap),
	}
	for i, v := range items {
		node := models.LayoutNode{
			Index: i,
			Label: formatInt(v),
			Y:     float64(n-1-i) * (stackHeight + cellGap),
		}
		if i == n-1 {
			node.Markers = []string{models.MarkerTop}
		}
		l.Nodes = append(l.Nodes, node)
	}
	return l
}

func queueLayout(items []int) models.Layout {
	n := len(items)
	l := models.Layout{
		Kind:   models.StructureQueue,
		Width:  float64(n) * (cellSize + cellGap),
		Height: cellSize,
	}
	for i, v := range items {
		node := models.LayoutNode{
			Index: i,
			Label: formatInt(v),
			X:     float64(i) * (cellSize + cellGap),
		}
		if i == 0 {
			node.Markers = append(node.Markers, models.MarkerFront)
		}
		if i == n-1 {
			node.Markers = append(node.Markers, models.MarkerRear)
		}
		l.Nodes = append(l.Nodes, node)
	}
	return l
}

func linkedListLayout(items []int) models.Layout {
	l := models.Layout{
		Kind:   models.StructureLinkedList,
		Width:  float64(len(items)) * chainStep,
		Height: cellSize,
	}
	for i, v := range items {
		x := float64(i) * chainStep
		l.Nodes = append(l.Nodes, models.LayoutNode{Index: i, Label: formatInt(v), X: x})
		if i > 0 {
			l.Edges = append(l.Edges, models.LayoutEdge{
				From: i - 1, To: i,
				X1: x - chainStep, Y1: cellSize / 2,
				X2: x, Y2: cellSize / 2,
			})
		}
	}
	if len(items) > 0 {
		l.Terminal = models.TerminalNull
	}
	return l
}

// treePosition maps an array index to the fixed three-level binary template
func treePosition(i int) (x, y float64, level int) {
	level = bits.Len(uint(i+1)) - 1
	first := (1 << level) - 1
	slots := 1 << level
	pos := i - first
	x = treeWidth * float64(2*pos+1) / float64(2*slots)
	y = treeTop + float64(level)*treeLevelStep
	return x, y, level
}

// treeLayout is positional: index 0 is the root, 1..2 level one, 3..6 level two.
// Values are not ordered relative to each other.
func treeLayout(items []int) models.Layout {
	l := models.Layout{
		Kind:   models.StructureTree,
		Width:  treeWidth,
		Height: treeTop*2 + 2*treeLevelStep,
	}

	drawn := len(items)
	if drawn > treeDrawnNodes {
		l.Hidden = drawn - treeDrawnNodes
		drawn = treeDrawnNodes
	}

	for i := 0; i < drawn; i++ {
		x, y, level := treePosition(i)
		l.Nodes = append(l.Nodes, models.LayoutNode{
			Index: i,
			Label: formatInt(items[i]),
			X:     x,
			Y:     y,
			Level: level,
		})
		if i > 0 {
			parent := (i - 1) / 2
			px, py, _ := treePosition(parent)
			l.Edges = append(l.Edges, models.LayoutEdge{
				From: parent, To: i,
				X1: px, Y1: py,
				X2: x, Y2: y,
			})
		}
	}
	return l
}

func graphPoint(i, n int) (float64, float64) {
	angle := float64(i) / float64(n) * 2 * math.Pi
	return graphCenter + math.Cos(angle)*graphRadius, graphCenter + math.Sin(angle)*graphRadius
}

// graphLayout places nodes on a circle. Edges follow a fixed parity rule on
// position indices; there is no adjacency model behind them.
func graphLayout(items []string) models.Layout {
	n := len(items)
	l := models.Layout{
		Kind:   models.StructureGraph,
		Width:  graphCenter * 2,
		Height: graphCenter * 2,
	}

	for i, label := range items {
		x, y := graphPoint(i, n)
		l.Nodes = append(l.Nodes, models.LayoutNode{Index: i, Label: label, X: x, Y: y})
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n-i-1; j++ {
			if (i+j)%2 != 0 {
				continue
			}
			to := i + j + 1
			x1, y1 := graphPoint(i, n)
			x2, y2 := graphPoint(to, n)
			l.Edges = append(l.Edges, models.LayoutEdge{
				From: i, To: to,
				X1: x1, Y1: y1,
				X2: x2, Y2: y2,
			})
		}
	}
	return l
}
