package persona

// Store exposes persona retrieval for handlers and the orchestrator.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	// Resolve maps any identifier to a usable instruction set. Unknown or
	// empty identifiers resolve to the calm-therapist persona; this is a
	// documented compatibility default, not an error.
	Resolve(id string) Persona
}

// MemoryStore implements Store with an in-memory slice; the persona table is
// read-only after startup.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the predefined persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// Resolve returns the persona for id, falling back to DefaultID.
func (s *MemoryStore) Resolve(id string) Persona {
	if p, ok := s.FindByID(id); ok {
		return p
	}
	p, _ := s.FindByID(DefaultID)
	return p
}
