package simulator

import (
	"strconv"

	"github.com/terra-clan/ds-visualizer/internal/events"
	"github.com/terra-clan/ds-visualizer/internal/models"
	"github.com/terra-clan/ds-visualizer/internal/storage"
)

// Bounds on the non-linear structures
const (
	TreeMaxNodes  = 15
	GraphMaxNodes = 8
)

// randomValue draws a value in [0,100)
func randomValue(_ []int, rng Rand) int {
	return rng.Intn(100)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}

func formatString(v string) string {
	return v
}

// ArrayConfig allows deletion at any index
func ArrayConfig() Config[int] {
	return Config[int]{
		Kind:     models.StructureArray,
		Seed:     []int{10, 20, 30, 40, 50},
		Policy:   RemoveAt,
		AddLabel: "ADD",
		Next:     randomValue,
		Layout:   arrayLayout,
		Format:   formatInt,
	}
}

// StackConfig pushes and pops at the tail ("top")
func StackConfig() Config[int] {
	return Config[int]{
		Kind:        models.StructureStack,
		Seed:        []int{10, 20, 30},
		Policy:      RemoveTail,
		AddLabel:    "PUSH",
		RemoveLabel: "POP",
		Next:        randomValue,
		Layout:      stackLayout,
		Format:      formatInt,
	}
}

// QueueConfig enqueues at the tail and dequeues at the head
func QueueConfig() Config[int] {
	return Config[int]{
		Kind:        models.StructureQueue,
		Seed:        []int{10, 20, 30},
		Policy:      RemoveHead,
		AddLabel:    "ENQUEUE",
		RemoveLabel: "DEQUEUE",
		Next:        randomValue,
		Layout:      queueLayout,
		Format:      formatInt,
	}
}

// LinkedListConfig appends and removes tail nodes
func LinkedListConfig() Config[int] {
	return Config[int]{
		Kind:        models.StructureLinkedList,
		Seed:        []int{10, 20, 30},
		Policy:      RemoveTail,
		AddLabel:    "ADD NODE",
		RemoveLabel: "REMOVE NODE",
		Next:        randomValue,
		Layout:      linkedListLayout,
		Format:      formatInt,
	}
}

// TreeConfig numbers nodes by position; remove resets to a lone root
func TreeConfig() Config[int] {
	return Config[int]{
		Kind:        models.StructureTree,
		Seed:        []int{1, 2, 3, 4, 5, 6, 7},
		Reset:       []int{1},
		MaxLen:      TreeMaxNodes,
		Policy:      ResetOnRemove,
		AddLabel:    "ADD NODE",
		RemoveLabel: "RESET",
		Next: func(items []int, _ Rand) int {
			return len(items) + 1
		},
		Layout: treeLayout,
		Format: formatInt,
	}
}

// GraphConfig labels nodes with sequential letters; remove resets to node A
func GraphConfig() Config[string] {
	return Config[string]{
		Kind:        models.StructureGraph,
		Seed:        []string{"A", "B", "C", "D", "E"},
		Reset:       []string{"A"},
		MaxLen:      GraphMaxNodes,
		Policy:      ResetOnRemove,
		AddLabel:    "ADD NODE",
		RemoveLabel: "RESET",
		Next: func(items []string, _ Rand) string {
			return string(rune('A' + len(items)))
		},
		Layout: graphLayout,
		Format: formatString,
	}
}

// Build creates the simulator for kind
func Build(kind models.StructureID, store storage.Store, namespace string, notifier events.Notifier, rng Rand) (Machine, bool) {
	switch kind {
	case models.StructureArray:
		return New(ArrayConfig(), store, namespace, notifier, rng), true
	case models.StructureStack:
		return New(StackConfig(), store, namespace, notifier, rng), true
	case models.StructureQueue:
		return New(QueueConfig(), store, namespace, notifier, rng), true
	case models.StructureLinkedList:
		return New(LinkedListConfig(), store, namespace, notifier, rng), true
	case models.StructureTree:
		return New(TreeConfig(), store, namespace, notifier, rng), true
	case models.StructureGraph:
		return New(GraphConfig(), store, namespace, notifier, rng), true
	}
	return nil, false
}

// BuildAll creates one simulator per known structure
func BuildAll(store storage.Store, namespace string, notifier events.Notifier, rng Rand) map[models.StructureID]Machine {
	out := make(map[models.StructureID]Machine, len(models.StructureIDs))
	for _, kind := range models.StructureIDs {
		m, _ := Build(kind, store, namespace, notifier, rng)
		out[kind] = m
	}
	return out
}
