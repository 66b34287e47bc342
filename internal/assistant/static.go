package assistant

import (
	"context"
	"fmt"
	"strings"
)

// StaticGenerator answers without any network call.
// It is used when no API key is configured so the schema panel stays usable offline.
type StaticGenerator struct{}

// Name returns the provider name
func (StaticGenerator) Name() string {
	return "static"
}

// Generate returns a canned schema for the structure named in the prompt
func (StaticGenerator) Generate(ctx context.Context, _ string, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	for _, s := range staticSchemas {
		if strings.Contains(prompt, "the "+s.name+" data structure") {
			return s.text, nil
		}
	}
	return "", fmt.Errorf("no offline schema matches the prompt")
}

var staticSchemas = []struct {
	name string
	text string
}{
	{"Linked-List", "Each node stores its value and a reference to the next node; the tail has no successor.\n\n```sql\nCREATE TABLE linked_list_nodes (\n    id      INTEGER PRIMARY KEY,\n    value   INTEGER NOT NULL,\n    next_id INTEGER REFERENCES linked_list_nodes(id)\n);\n```\n\n```sql\nINSERT INTO linked_list_nodes (id, value, next_id) VALUES (2, 20, NULL), (1, 10, 2);\n```"},
	{"Array", "Elements are rows ordered by an explicit position column.\n\n```sql\nCREATE TABLE array_elements (\n    position INTEGER PRIMARY KEY,\n    value    INTEGER NOT NULL\n);\n```\n\n```sql\nINSERT INTO array_elements (position, value) VALUES (0, 10), (1, 20);\n```"},
	{"Stack", "Each row carries a monotonically increasing sequence; the highest sequence is the top.\n\n```sql\nCREATE TABLE stack_items (\n    seq   INTEGER PRIMARY KEY,\n    value INTEGER NOT NULL\n);\n```\n\n```sql\nINSERT INTO stack_items (seq, value) VALUES (1, 10), (2, 20);\n```"},
	{"Queue", "Rows are dequeued from the lowest sequence (front) and enqueued at the highest (rear).\n\n```sql\nCREATE TABLE queue_items (\n    seq         INTEGER PRIMARY KEY,\n    value       INTEGER NOT NULL,\n    enqueued_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP\n);\n```\n\n```sql\nINSERT INTO queue_items (seq, value) VALUES (1, 10), (2, 20);\n```"},
	{"Tree", "Each node references its parent; the root has no parent.\n\n```sql\nCREATE TABLE tree_nodes (\n    id        INTEGER PRIMARY KEY,\n    value     INTEGER NOT NULL,\n    parent_id INTEGER REFERENCES tree_nodes(id),\n    side      TEXT CHECK (side IN ('left', 'right'))\n);\n```\n\n```sql\nINSERT INTO tree_nodes (id, value, parent_id, side) VALUES (1, 1, NULL, NULL), (2, 2, 1, 'left');\n```"},
	{"Graph", "Vertices and edges live in separate tables; an edge joins two vertices.\n\n```sql\nCREATE TABLE vertices (\n    id    INTEGER PRIMARY KEY,\n    label TEXT NOT NULL UNIQUE\n);\n\nCREATE TABLE edges (\n    source_id INTEGER NOT NULL REFERENCES vertices(id),\n    target_id INTEGER NOT NULL REFERENCES vertices(id),\n    PRIMARY KEY (source_id, target_id)\n);\n```\n\n```sql\nINSERT INTO vertices (id, label) VALUES (1, 'A'), (2, 'B');\nINSERT INTO edges (source_id, target_id) VALUES (1, 2);\n```"},
}
