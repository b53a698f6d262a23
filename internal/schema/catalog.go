package schema

import (
	"fmt"
	"slices"
	"sync"

	"github.com/benbjohnson/immutable"
	"github.com/google/uuid"
)

// Object is a handle to a schema object: its identity plus its variant.
// Handles are plain values; all data lives in the catalog.
type Object struct {
	ID      uuid.UUID
	Variant Variant
}

// IsZero reports whether the handle is unset.
func (o Object) IsZero() bool {
	return o.ID == uuid.Nil
}

// String implements fmt.Stringer.
func (o Object) String() string {
	return fmt.Sprintf("<%s %s>", o.Variant, o.ID)
}

// ObjectList is an ordered list of handles stored in a field.
type ObjectList []Object

// IDs returns the ids of the listed objects in order.
func (l ObjectList) IDs() []uuid.UUID {
	out := make([]uuid.UUID, len(l))
	for i, o := range l {
		out[i] = o.ID
	}
	return out
}

type fieldMap = *immutable.Map[string, any]

type refMap = *immutable.Map[refKey, IDSet]

// Catalog is an immutable snapshot of the schema.
//
// All read methods are safe for concurrent use. Mutating methods return a new
// Catalog whose generation is one greater than the receiver's; on error the
// receiver is returned unchanged alongside the error.
type Catalog struct {
	idToData      *immutable.Map[uuid.UUID, fieldMap]
	idToType      *immutable.Map[uuid.UUID, Variant]
	nameToID      *immutable.Map[string, uuid.UUID]
	shortnameToID *immutable.Map[groupKey, IDSet]
	refsTo        *immutable.Map[uuid.UUID, refMap]
	modules       *immutable.Map[string, uuid.UUID]
	generation    int64

	memo *memo
}

// New returns an empty catalog at generation 0.
func New() *Catalog {
	return &Catalog{
		idToData:      immutable.NewMap[uuid.UUID, fieldMap](uuidHasher{}),
		idToType:      immutable.NewMap[uuid.UUID, Variant](uuidHasher{}),
		nameToID:      immutable.NewMap[string, uuid.UUID](stringKeys),
		shortnameToID: immutable.NewMap[groupKey, IDSet](groupKeyHasher{}),
		refsTo:        immutable.NewMap[uuid.UUID, refMap](uuidHasher{}),
		modules:       immutable.NewMap[string, uuid.UUID](stringKeys),
		memo:          newMemo(),
	}
}

// Generation returns the number of successful mutations since New.
func (c *Catalog) Generation() int64 {
	return c.generation
}

// Len returns the number of objects in the catalog.
func (c *Catalog) Len() int {
	return c.idToType.Len()
}

// String implements fmt.Stringer.
func (c *Catalog) String() string {
	return fmt.Sprintf("<Catalog gen:%d>", c.generation)
}

// derive returns a copy of c with a bumped generation and a fresh memo.
// Callers overwrite the indices they changed.
func (c *Catalog) derive() *Catalog {
	next := *c
	next.generation = c.generation + 1
	next.memo = newMemo()
	return &next
}

// GetByID returns the handle for id.
func (c *Catalog) GetByID(id uuid.UUID) (Object, bool) {
	v, ok := c.idToType.Get(id)
	if !ok {
		return Object{}, false
	}
	return Object{ID: id, Variant: v}, true
}

// Has reports whether obj is present in this catalog value.
func (c *Catalog) Has(obj Object) bool {
	_, ok := c.idToType.Get(obj.ID)
	return ok
}

// HasModule reports whether a module with the given name exists.
func (c *Catalog) HasModule(name string) bool {
	_, ok := c.modules.Get(name)
	return ok
}

// Modules returns the declared module names.
func (c *Catalog) Modules() []string {
	out := make([]string, 0, c.modules.Len())
	itr := c.modules.Iterator()
	for !itr.Done() {
		name, _, _ := itr.Next()
		out = append(out, name)
	}
	sortStrings(out)
	return out
}

func (c *Catalog) objectsByID(ids []uuid.UUID) []Object {
	out := make([]Object, 0, len(ids))
	for _, id := range ids {
		if obj, ok := c.GetByID(id); ok {
			out = append(out, obj)
		}
	}
	return out
}

// memo holds lazily computed answers for one catalog value.
type memo struct {
	mu        sync.Mutex
	groups    map[groupKey][]Object
	referrers map[referrerKey][]Object
	casts     map[castKey][]Object
}

type referrerKey struct {
	id      uuid.UUID
	variant Variant
	field   string
}

type castKey struct {
	id         uuid.UUID
	field      string
	implicit   bool
	assignment bool
}

func newMemo() *memo {
	return &memo{
		groups:    make(map[groupKey][]Object),
		referrers: make(map[referrerKey][]Object),
		casts:     make(map[castKey][]Object),
	}
}

// memoize returns a copy of the cached value for key, computing and storing
// it first if needed. Callers own the returned slice.
func memoize[K comparable](m *memo, cache map[K][]Object, key K, compute func() []Object) []Object {
	m.mu.Lock()
	v, ok := cache[key]
	m.mu.Unlock()
	if ok {
		return slices.Clone(v)
	}

	v = compute()

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := cache[key]; ok {
		return slices.Clone(existing)
	}
	cache[key] = v
	return slices.Clone(v)
}
