package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"nablaScope/internal/model"
)

// Backend persists registered components.
type Backend interface {
	LoadComponents(ctx context.Context) ([]model.Component, error)
	// InsertComponents stores components, ignoring ids that already exist.
	InsertComponents(ctx context.Context, components []model.Component) error
}

// Store is an append-only component registry keyed by lower-case address.
// The first registration of an id wins; later ones are ignored.
type Store struct {
	mu         sync.RWMutex
	components map[string]model.Component
	backend    Backend
	logger     *zap.Logger
}

// NewStore creates a registry. backend may be nil for a process-local registry.
func NewStore(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		components: make(map[string]model.Component),
		backend:    backend,
		logger:     logger,
	}
}

// Load fills the registry from the backend.
func (s *Store) Load(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	components, err := s.backend.LoadComponents(ctx)
	if err != nil {
		return fmt.Errorf("load components: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, component := range components {
		id := normalizeID(component.ID)
		if _, ok := s.components[id]; ok {
			continue
		}
		component.ID = id
		s.components[id] = component
	}
	s.logger.Info("component registry loaded", zap.Int("components", len(s.components)))
	return nil
}

// Component returns the registration for id.
func (s *Store) Component(ctx context.Context, id string) (model.Component, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	component, ok := s.components[normalizeID(id)]
	return component, ok, nil
}

// SetIfNotExists registers component unless its id is already known and
// reports whether it was inserted.
func (s *Store) SetIfNotExists(ctx context.Context, component model.Component) (bool, error) {
	if component.ID == "" {
		return false, fmt.Errorf("component id is empty")
	}
	if _, err := model.ParseComponentKind(string(component.Kind)); err != nil {
		return false, err
	}
	component.ID = normalizeID(component.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.components[component.ID]; ok {
		return false, nil
	}
	if s.backend != nil {
		if err := s.backend.InsertComponents(ctx, []model.Component{component}); err != nil {
			return false, fmt.Errorf("insert component %s: %w", component.ID, err)
		}
	}
	s.components[component.ID] = component
	return true, nil
}

// Detached returns a copy of the registry whose new registrations are kept
// in memory only.
func (s *Store) Detached() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	components := make(map[string]model.Component, len(s.components))
	for id, component := range s.components {
		components[id] = component
	}
	return &Store{components: components, logger: s.logger}
}

// Len returns the number of registered components.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.components)
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
