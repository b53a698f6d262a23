package schema

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator assigns identities to new schema objects.
type IDGenerator interface {
	Generate(name Name) uuid.UUID
}

// UUIDv7Generator generates time-sortable UUIDv7 object ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate ignores the name and returns a fresh UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate(Name) uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NameGenerator derives ids from object names (UUIDv5 under Namespace).
// Loading the same declarations twice yields the same ids, which keeps
// recorded resolutions and golden output stable.
type NameGenerator struct {
	Namespace uuid.UUID
}

// SchemaNamespace is the default namespace for NameGenerator.
var SchemaNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("qlbind:schema"))

// Generate returns the name-based id for name.
func (g NameGenerator) Generate(name Name) uuid.UUID {
	ns := g.Namespace
	if ns == uuid.Nil {
		ns = SchemaNamespace
	}
	return uuid.NewSHA1(ns, []byte(name.String()))
}

// FixedGenerator returns predetermined ids for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []uuid.UUID
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...uuid.UUID) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed, so a test that creates more objects
// than it planned for fails fast.
func (g *FixedGenerator) Generate(Name) uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
