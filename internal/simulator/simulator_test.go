package simulator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/ds-visualizer/internal/models"
	"github.com/terra-clan/ds-visualizer/internal/storage"
)

// seqRand returns values from a fixed sequence, cycling
type seqRand struct {
	values []int
	next   int
}

func (r *seqRand) Intn(n int) int {
	v := r.values[r.next%len(r.values)] % n
	r.next++
	return v
}

type countingNotifier struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingNotifier) DataChanged(ns string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[ns]++
}

func (c *countingNotifier) count(ns string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[ns]
}

// failingStore fails every operation
type failingStore struct{}

var errBroken = errors.New("store unavailable")

func (failingStore) Get(context.Context, string) (string, error) { return "", errBroken }
func (failingStore) Set(context.Context, string, string) error   { return errBroken }
func (failingStore) Delete(context.Context, string) error        { return errBroken }
func (failingStore) Ping(context.Context) error                  { return errBroken }
func (failingStore) Close() error                                { return nil }

func newMachine(t *testing.T, kind models.StructureID, store storage.Store) Machine {
	t.Helper()
	m, ok := Build(kind, store, "ns", nil, &seqRand{values: []int{42, 7, 99}})
	require.True(t, ok)
	return m
}

func TestSeeds(t *testing.T) {
	ctx := context.Background()
	want := map[models.StructureID][]string{
		models.StructureArray:      {"10", "20", "30", "40", "50"},
		models.StructureStack:      {"10", "20", "30"},
		models.StructureQueue:      {"10", "20", "30"},
		models.StructureLinkedList: {"10", "20", "30"},
		models.StructureTree:       {"1", "2", "3", "4", "5", "6", "7"},
		models.StructureGraph:      {"A", "B", "C", "D", "E"},
	}

	all := BuildAll(storage.NewMemoryStore(), "ns", nil, &seqRand{values: []int{1}})
	require.Len(t, all, 6)
	for kind, items := range want {
		assert.Equal(t, items, all[kind].State(ctx).Items, kind)
	}
}

func TestAddThenRemoveRestoresSequence(t *testing.T) {
	ctx := context.Background()

	for _, kind := range []models.StructureID{models.StructureStack, models.StructureLinkedList} {
		m := newMachine(t, kind, storage.NewMemoryStore())
		before := m.State(ctx).Items

		require.True(t, m.Add(ctx))
		changed, err := m.Remove(ctx, -1)
		require.NoError(t, err)
		require.True(t, changed)

		assert.Equal(t, before, m.State(ctx).Items, kind)
	}

	// array: remove the appended index
	arr := newMachine(t, models.StructureArray, storage.NewMemoryStore())
	before := arr.State(ctx).Items
	require.True(t, arr.Add(ctx))
	changed, err := arr.Remove(ctx, arr.Len(ctx)-1)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, before, arr.State(ctx).Items)
}

func TestQueueDequeuesHead(t *testing.T) {
	ctx := context.Background()
	q := newMachine(t, models.StructureQueue, storage.NewMemoryStore())

	require.True(t, q.Add(ctx))
	assert.Equal(t, []string{"10", "20", "30", "42"}, q.State(ctx).Items)

	changed, err := q.Remove(ctx, -1)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, []string{"20", "30", "42"}, q.State(ctx).Items)
}

func TestStackScenario(t *testing.T) {
	ctx := context.Background()
	s := newMachine(t, models.StructureStack, storage.NewMemoryStore())

	require.True(t, s.Add(ctx)) // 42
	require.True(t, s.Add(ctx)) // 7
	_, err := s.Remove(ctx, -1)
	require.NoError(t, err)

	assert.Equal(t, []string{"10", "20", "30", "42"}, s.State(ctx).Items)
}

func TestRemoveOnEmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []models.StructureID{models.StructureStack, models.StructureQueue, models.StructureLinkedList} {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(ctx, storage.StructureKey(kind.Slug()), `[]`))
		m := newMachine(t, kind, store)

		changed, err := m.Remove(ctx, -1)
		require.NoError(t, err)
		assert.False(t, changed, kind)
		assert.Equal(t, 0, m.Len(ctx))
	}
}

func TestArrayPositionalRemove(t *testing.T) {
	ctx := context.Background()
	arr := newMachine(t, models.StructureArray, storage.NewMemoryStore())

	changed, err := arr.Remove(ctx, 2)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, []string{"10", "20", "40", "50"}, arr.State(ctx).Items)

	changed, err = arr.Remove(ctx, 99)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = arr.Remove(ctx, -1)
	assert.ErrorIs(t, err, ErrIndexRequired)

	assert.True(t, arr.State(ctx).Positional)
}

func TestArrayAddValuesInRange(t *testing.T) {
	ctx := context.Background()
	sim := New(ArrayConfig(), storage.NewMemoryStore(), "ns", nil, &seqRand{values: []int{0, 99, 150, 1234}})

	for i := 0; i < 4; i++ {
		require.True(t, sim.Add(ctx))
	}
	for _, v := range sim.Items(ctx)[5:] {
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 100)
	}
}

func TestTreeBoundAndReset(t *testing.T) {
	ctx := context.Background()
	tree := New(TreeConfig(), storage.NewMemoryStore(), "ns", nil, &seqRand{values: []int{0}})

	for i := 0; i < 20; i++ {
		tree.Add(ctx)
	}
	items := tree.Items(ctx)
	require.Len(t, items, TreeMaxNodes)
	assert.Equal(t, 15, items[14], "tree values are positional numbers")
	assert.False(t, tree.Add(ctx), "add past the bound is a no-op")

	changed, err := tree.Remove(ctx, -1)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{1}, tree.Items(ctx))

	_, err = tree.Remove(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, tree.Items(ctx))
}

func TestGraphBoundAndReset(t *testing.T) {
	ctx := context.Background()
	graph := New(GraphConfig(), storage.NewMemoryStore(), "ns", nil, &seqRand{values: []int{0}})

	for i := 0; i < 10; i++ {
		graph.Add(ctx)
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G", "H"}, graph.Items(ctx))
	assert.False(t, graph.Add(ctx))

	_, err := graph.Remove(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, graph.Items(ctx))

	require.True(t, graph.Add(ctx))
	assert.Equal(t, []string{"A", "B"}, graph.Items(ctx))
}

func TestMutationsPersistAndNotify(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	notifier := &countingNotifier{}

	sim := New(StackConfig(), store, "ws-1", notifier, &seqRand{values: []int{5}})
	require.True(t, sim.Add(ctx))

	raw, err := store.Get(ctx, "ds_stack_data")
	require.NoError(t, err)
	assert.Equal(t, `[10,20,30,5]`, raw)
	assert.Equal(t, 1, notifier.count("ws-1"))

	_, err = sim.Remove(ctx, -1)
	require.NoError(t, err)
	raw, _ = store.Get(ctx, "ds_stack_data")
	assert.Equal(t, `[10,20,30]`, raw)
	assert.Equal(t, 2, notifier.count("ws-1"))

	// reading does not notify
	sim.State(ctx)
	assert.Equal(t, 2, notifier.count("ws-1"))
}

func TestNoopsDoNotNotify(t *testing.T) {
	ctx := context.Background()
	notifier := &countingNotifier{}
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "ds_graph_data", `["A","B","C","D","E","F","G","H"]`))

	graph := New(GraphConfig(), store, "ns", notifier, &seqRand{values: []int{0}})
	assert.False(t, graph.Add(ctx))
	assert.Equal(t, 0, notifier.count("ns"))
}

func TestRestoreFromStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "ds_queue_data", `[7,8]`))

	q := newMachine(t, models.StructureQueue, store)
	assert.Equal(t, []string{"7", "8"}, q.State(ctx).Items)
}

func TestRestoreFallsBackToSeed(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"invalid json": `{not json`,
		"wrong type":   `["x","y"]`,
		"null":         `null`,
		"object":       `{"a":1}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(ctx, "ds_array_data", raw))

			arr := newMachine(t, models.StructureArray, store)
			assert.Equal(t, []string{"10", "20", "30", "40", "50"}, arr.State(ctx).Items)
		})
	}
}

func TestStoreFailuresAreNotFatal(t *testing.T) {
	ctx := context.Background()
	m := newMachine(t, models.StructureLinkedList, failingStore{})

	assert.Equal(t, 3, m.Len(ctx))
	assert.True(t, m.Add(ctx))
	assert.Equal(t, 4, m.Len(ctx), "in-memory state stays authoritative")
}

func TestStateLabels(t *testing.T) {
	ctx := context.Background()
	st := newMachine(t, models.StructureTree, storage.NewMemoryStore()).State(ctx)

	assert.Equal(t, models.StructureTree, st.Kind)
	assert.Equal(t, TreeMaxNodes, st.MaxLength)
	assert.Equal(t, "ADD NODE", st.AddLabel)
	assert.Equal(t, "RESET", st.RemoveLabel)
	assert.False(t, st.Positional)
}
