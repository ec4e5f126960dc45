package collab

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrCollaboratorNil    = errors.New("collab: collaborator is nil")
	ErrCollaboratorExists = errors.New("collab: collaborator already registered")
	ErrInvalidKind        = errors.New("collab: invalid kind")
)

// Well-known collaborator kinds resolved during boot.
const (
	KindSaves         = "saves"
	KindProfiles      = "profiles"
	KindAudio         = "audio"
	KindUI            = "ui"
	KindConsentPrompt = "consent-prompt"
)

// Collaborator is the narrow contract a bound subsystem exposes to boot.
// Presence in the registry is the only readiness signal boot interprets.
type Collaborator interface {
	Kind() string
	Status() (any, error)
}

// Registry stores collaborators by stable kind.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Collaborator
}

// NewRegistry initializes an empty collaborator registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Collaborator)}
}

// Register adds a collaborator under its kind. Registering a second
// collaborator of the same kind is an error; boot assumes one handle
// per kind.
func (r *Registry) Register(c Collaborator) error {
	if c == nil {
		return ErrCollaboratorNil
	}
	kind := strings.TrimSpace(c.Kind())
	if kind == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[kind]; ok {
		return fmt.Errorf("%w: %s", ErrCollaboratorExists, kind)
	}
	r.items[kind] = c
	return nil
}

// Resolve returns the collaborator registered under kind, if any.
func (r *Registry) Resolve(kind string) (Collaborator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[strings.TrimSpace(kind)]
	return c, ok
}

// Kinds returns deterministic ordering of registered kinds.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.items))
	for kind := range r.items {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}
