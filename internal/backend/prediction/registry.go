package prediction

import (
	"fmt"
	"sort"
	"strings"
)

// Factory creates a predictor from configuration parameters
type Factory func(params map[string]any) (Predictor, error)

// Registry manages the registration and creation of predictors
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a predictor factory to the registry
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("predictor name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("predictor factory cannot be nil")
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("predictor %s is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Create instantiates a predictor by name with the given parameters
func (r *Registry) Create(name string, params map[string]any) (Predictor, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown predictor: %s (registered: %s)", name, strings.Join(r.GetRegisteredNames(), ", "))
	}

	predictor, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create predictor %s: %w", name, err)
	}

	return predictor, nil
}

func (r *Registry) IsRegistered(name string) bool {
	_, exists := r.factories[name]
	return exists
}

// GetRegisteredNames returns the sorted names of all registered predictors
func (r *Registry) GetRegisteredNames() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in predictors, registered in init functions.
var DefaultRegistry = NewRegistry()
