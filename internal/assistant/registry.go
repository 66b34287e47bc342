package assistant

import (
	"fmt"
	"sort"
	"sync"
)

// Settings selects and configures the active provider
type Settings struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// Registry manages generators by provider name
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewRegistry creates a new generator registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// Register adds a generator under its own name
func (r *Registry) Register(g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[g.Name()] = g
}

// Get retrieves a generator by name
func (r *Registry) Get(name string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("unknown assistant provider %q", name)
	}
	return g, nil
}

// List returns all registered provider names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes a generator from the registry
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.generators, name)
}

// NewDefaultRegistry registers every provider configured by s.
// The static generator is always available.
func NewDefaultRegistry(s Settings) *Registry {
	r := NewRegistry()
	r.Register(StaticGenerator{})
	r.Register(NewOpenAIGenerator(OpenAIConfig{
		APIKey:      s.APIKey,
		BaseURL:     s.BaseURL,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	}))
	r.Register(NewAnthropicGenerator(AnthropicConfig{
		APIKey:      s.APIKey,
		BaseURL:     s.BaseURL,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	}))
	return r
}

// Select returns the configured generator, falling back to the static one
// when a network provider has no API key and no custom endpoint.
func (r *Registry) Select(s Settings) (Generator, error) {
	name := s.Provider
	if name != "static" && s.APIKey == "" && s.BaseURL == "" {
		name = "static"
	}
	return r.Get(name)
}
