package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/ds-visualizer/internal/assistant"
	"github.com/terra-clan/ds-visualizer/internal/catalog"
	"github.com/terra-clan/ds-visualizer/internal/config"
	"github.com/terra-clan/ds-visualizer/internal/events"
	"github.com/terra-clan/ds-visualizer/internal/models"
	"github.com/terra-clan/ds-visualizer/internal/storage"
	"github.com/terra-clan/ds-visualizer/internal/web"
	"github.com/terra-clan/ds-visualizer/internal/workspace"
)

const testWorkspace = "8d6f7f0e-5c1a-4e7b-9a43-0d8f3b8c2a11"

type gatedGenerator struct {
	gate chan struct{}
	once sync.Once
}

func (g *gatedGenerator) Name() string { return "gated" }

func (g *gatedGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	<-g.gate
	return "", errors.New("upstream unavailable")
}

func (g *gatedGenerator) release() {
	g.once.Do(func() { close(g.gate) })
}

type unreachableStore struct {
	*storage.MemoryStore
}

func (unreachableStore) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func newTestServer(t *testing.T, store storage.Store, gen assistant.Generator) *Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := events.NewHub()
	go hub.Run(ctx)

	renderer, err := web.NewRenderer(catalog.Default())
	require.NoError(t, err)

	if gen == nil {
		gen = assistant.StaticGenerator{}
	}

	return NewServer(
		config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		config.SessionConfig{Secret: "test-secret", MaxAge: time.Hour},
		Dependencies{
			Catalog:    catalog.Default(),
			Workspaces: workspace.NewManager(store, workspace.Options{Notifier: hub}),
			Store:      store,
			Hub:        hub,
			Renderer:   renderer,
			Generator:  gen,
			Model:      "test-model",
		},
	)
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set(WorkspaceHeader, testWorkspace)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStore(), nil)

	rec, env := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, _ = do(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newTestServer(t, unreachableStore{storage.NewMemoryStore()}, nil)
	rec, env = do(t, down, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", env.Error.Code)
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStore(), nil)

	rec, env := do(t, s, http.MethodGet, "/api/v1/structures", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Structures []models.StructureInfo `json:"structures"`
		Total      int                    `json:"total"`
	}
	decodeData(t, env, &list)
	assert.Equal(t, 6, list.Total)

	rec, env = do(t, s, http.MethodGet, "/api/v1/structures/linked-list", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info models.StructureInfo
	decodeData(t, env, &info)
	assert.Equal(t, models.StructureLinkedList, info.ID)

	rec, env = do(t, s, http.MethodGet, "/api/v1/structures/heap", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown_structure", env.Error.Code)
}

func TestSelection(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStore(), nil)

	_, env := do(t, s, http.MethodGet, "/api/v1/state", "")
	var state models.WorkspaceState
	decodeData(t, env, &state)
	assert.Equal(t, models.StructureArray, state.Selected)
	assert.Equal(t, testWorkspace, state.WorkspaceID)
	assert.Equal(t, []string{"10", "20", "30", "40", "50"}, state.Structure.Items)

	rec, env := do(t, s, http.MethodPut, "/api/v1/selection", `{"id":"stack"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, env, &state)
	assert.Equal(t, models.StructureStack, state.Selected)
	assert.Empty(t, state.SchemaText)

	rec, env = do(t, s, http.MethodPut, "/api/v1/selection", `{"id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", env.Error.Code)

	rec, env = do(t, s, http.MethodPut, "/api/v1/selection", `{"id":"Heap"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown_structure", env.Error.Code)
}

func TestStructureMutations(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStore(), nil)

	rec, env := do(t, s, http.MethodPost, "/api/v1/structures/queue/remove", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var mut models.MutationResponse
	decodeData(t, env, &mut)
	assert.True(t, mut.Changed)
	assert.Equal(t, []string{"20", "30"}, mut.State.Items)

	rec, env = do(t, s, http.MethodPost, "/api/v1/structures/array/remove", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", env.Error.Code)

	rec, env = do(t, s, http.MethodPost, "/api/v1/structures/array/remove", `{"index":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, env, &mut)
	assert.Equal(t, []string{"10", "20", "40", "50"}, mut.State.Items)

	rec, _ = do(t, s, http.MethodPost, "/api/v1/structures/array/remove", `{"index":-3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, s, http.MethodPost, "/api/v1/structures/array/remove", `{"index":99}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, env, &mut)
	assert.False(t, mut.Changed)

	for i := 0; i < 20; i++ {
		_, env = do(t, s, http.MethodPost, "/api/v1/structures/graph/add", "")
	}
	decodeData(t, env, &mut)
	assert.False(t, mut.Changed)
	assert.Len(t, mut.State.Items, 8)

	rec, env = do(t, s, http.MethodPost, "/api/v1/structures/graph/remove", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, env, &mut)
	assert.Equal(t, []string{"A"}, mut.State.Items)

	rec, env = do(t, s, http.MethodGet, "/api/v1/structures/tree/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st models.StructureState
	decodeData(t, env, &st)
	assert.Equal(t, 15, st.MaxLength)
	assert.Len(t, st.Layout.Nodes, 7)

	rec, env = do(t, s, http.MethodPost, "/api/v1/structures/heap/add", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown_structure", env.Error.Code)
}

func TestSchemaFlow(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStore(), nil)

	rec, env := do(t, s, http.MethodPost, "/api/v1/schema/save", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var saved models.SaveSchemaResponse
	decodeData(t, env, &saved)
	assert.False(t, saved.Saved)
	assert.Equal(t, 0, saved.History)

	rec, _ = do(t, s, http.MethodPost, "/api/v1/schema/generate", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var schema models.SchemaState
	require.Eventually(t, func() bool {
		_, env := do(t, s, http.MethodGet, "/api/v1/schema", "")
		decodeData(t, env, &schema)
		return !schema.Generating && schema.SchemaText != ""
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, schema.SchemaText, "CREATE TABLE array_elements")

	_, env = do(t, s, http.MethodPost, "/api/v1/schema/save", "")
	decodeData(t, env, &saved)
	require.True(t, saved.Saved)
	assert.Equal(t, 1, saved.History)
	assert.True(t, strings.HasPrefix(saved.Entry.Name, "Array Schema - "))

	do(t, s, http.MethodPut, "/api/v1/selection", `{"id":"Tree"}`)
	_, env = do(t, s, http.MethodGet, "/api/v1/schema", "")
	decodeData(t, env, &schema)
	assert.Empty(t, schema.SchemaText)

	rec, env = do(t, s, http.MethodPost, "/api/v1/schema/saved/"+saved.Entry.ID+"/load", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, env, &schema)
	assert.Contains(t, schema.SchemaText, "array_elements")

	rec, env = do(t, s, http.MethodDelete, "/api/v1/schema/saved/"+saved.Entry.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, env, &schema)
	assert.Empty(t, schema.SavedSchemas)

	rec, env = do(t, s, http.MethodDelete, "/api/v1/schema/saved/"+saved.Entry.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)

	rec, env = do(t, s, http.MethodPost, "/api/v1/schema/saved/missing/load", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestGenerateConflictAndFailureText(t *testing.T) {
	gen := &gatedGenerator{gate: make(chan struct{})}
	t.Cleanup(gen.release)
	s := newTestServer(t, storage.NewMemoryStore(), gen)

	rec, _ := do(t, s, http.MethodPost, "/api/v1/schema/generate", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec, env := do(t, s, http.MethodPost, "/api/v1/schema/generate", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "generation_in_progress", env.Error.Code)

	// other mutations proceed while the generation is pending
	rec, _ = do(t, s, http.MethodPost, "/api/v1/structures/stack/add", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// the page form ignores the second click
	rec, _ = do(t, s, http.MethodPost, "/schema/generate", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	gen.release()

	var schema models.SchemaState
	require.Eventually(t, func() bool {
		_, env := do(t, s, http.MethodGet, "/api/v1/schema", "")
		decodeData(t, env, &schema)
		return !schema.Generating
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, workspace.GenerationFailedText, schema.SchemaText)
}

func TestPageRoutes(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStore(), nil)

	rec, _ := do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Data Structure Visualizer")

	rec, _ = do(t, s, http.MethodPost, "/select/linked-list", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec, _ = do(t, s, http.MethodPost, "/structures/linkedlist/add", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	form := url.Values{"index": {"0"}}
	req := httptest.NewRequest(http.MethodPost, "/structures/array/remove", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(WorkspaceHeader, testWorkspace)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	_, env := do(t, s, http.MethodGet, "/api/v1/state", "")
	var state models.WorkspaceState
	decodeData(t, env, &state)
	assert.Equal(t, models.StructureLinkedList, state.Selected)
	assert.Len(t, state.Structure.Items, 4)

	_, env = do(t, s, http.MethodGet, "/api/v1/structures/array/state", "")
	var st models.StructureState
	decodeData(t, env, &st)
	assert.Equal(t, []string{"20", "30", "40", "50"}, st.Items)

	rec, _ = do(t, s, http.MethodPost, "/structures/array/remove", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, s, http.MethodPost, "/select/heap", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, s, http.MethodPost, "/schema/saved/missing/delete", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestSessionCookieIdentifiesWorkspace(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStore(), nil)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/structures/stack/remove", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	id := rec.Header().Get(WorkspaceHeader)
	require.True(t, workspace.ValidID(id))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, SessionName, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/structures/stack/state", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(WorkspaceHeader))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var st models.StructureState
	decodeData(t, env, &st)
	assert.Equal(t, []string{"10", "20"}, st.Items)

	// a fresh visitor gets a different workspace
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))
	assert.NotEqual(t, id, rec.Header().Get(WorkspaceHeader))
}

func TestInvalidWorkspaceHeader(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	req.Header.Set(WorkspaceHeader, "../../etc")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogRoutesNeedNoWorkspace(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStore(), nil)

	for _, path := range []string{"/api/v1/structures", "/api/v1/structures/graph"} {
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Empty(t, rec.Result().Cookies(), path)
		assert.Empty(t, rec.Header().Get(WorkspaceHeader), path)
	}
	assert.Equal(t, 0, s.workspaces.Len())
}

func TestResetWorkspace(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStore(), nil)

	_, _ = do(t, s, http.MethodPut, "/api/v1/selection", `{"id":"Stack"}`)
	_, _ = do(t, s, http.MethodPost, "/api/v1/structures/stack/remove", "")
	_, _ = do(t, s, http.MethodPost, "/api/v1/schema/generate", "")
	require.Eventually(t, func() bool {
		_, env := do(t, s, http.MethodGet, "/api/v1/schema", "")
		var schema models.SchemaState
		decodeData(t, env, &schema)
		return !schema.Generating && schema.SchemaText != ""
	}, 2*time.Second, 10*time.Millisecond)
	_, _ = do(t, s, http.MethodPost, "/api/v1/schema/save", "")

	rec, env := do(t, s, http.MethodDelete, "/api/v1/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var state models.WorkspaceState
	decodeData(t, env, &state)
	assert.Equal(t, models.StructureArray, state.Selected)
	assert.Empty(t, state.SchemaText)
	assert.Empty(t, state.SavedSchemas)

	_, env = do(t, s, http.MethodGet, "/api/v1/structures/stack/state", "")
	var st models.StructureState
	decodeData(t, env, &st)
	assert.Equal(t, []string{"10", "20", "30"}, st.Items)

	rec, _ = do(t, s, http.MethodPost, "/reset", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
