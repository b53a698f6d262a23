package schema

import (
	"iter"
	"slices"

	"github.com/benbjohnson/immutable"
	"github.com/google/uuid"
)

// IterOption narrows an Iterator.
type IterOption func(*Iterator)

// OfVariant keeps only objects of the given variants.
func OfVariant(vs ...Variant) IterOption {
	return func(it *Iterator) {
		it.variants = append(it.variants, vs...)
	}
}

// InModules keeps only objects whose name lives in one of the modules.
// Modules themselves never match a module filter.
func InModules(modules ...string) IterOption {
	return func(it *Iterator) {
		it.modules = append(it.modules, modules...)
	}
}

// Iterator is a restartable, filtered view over one catalog value.
// Next and Reset drive a cursor; All, Collect and Count ignore it and always
// start from the beginning.
type Iterator struct {
	catalog  *Catalog
	variants []Variant
	modules  []string
	cursor   *immutable.MapIterator[uuid.UUID, Variant]
}

// Objects returns an iterator over the catalog's objects.
func (c *Catalog) Objects(opts ...IterOption) *Iterator {
	it := &Iterator{catalog: c}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

func (it *Iterator) accept(obj Object) bool {
	if len(it.variants) > 0 && !slices.Contains(it.variants, obj.Variant) {
		return false
	}
	if len(it.modules) > 0 {
		if obj.Variant == VariantModule {
			return false
		}
		if !slices.Contains(it.modules, it.catalog.NameOf(obj).Module) {
			return false
		}
	}
	return true
}

// Next returns the next matching object, or false once the snapshot is
// exhausted.
func (it *Iterator) Next() (Object, bool) {
	if it.cursor == nil {
		it.cursor = it.catalog.idToType.Iterator()
	}
	for !it.cursor.Done() {
		id, v, _ := it.cursor.Next()
		if obj := (Object{ID: id, Variant: v}); it.accept(obj) {
			return obj, true
		}
	}
	return Object{}, false
}

// Reset rewinds the cursor to the start of the same snapshot.
func (it *Iterator) Reset() {
	it.cursor = nil
}

// All yields each matching object. Order follows the underlying trie and is
// stable for a given catalog value.
func (it *Iterator) All() iter.Seq[Object] {
	return func(yield func(Object) bool) {
		itr := it.catalog.idToType.Iterator()
		for !itr.Done() {
			id, v, _ := itr.Next()
			obj := Object{ID: id, Variant: v}
			if !it.accept(obj) {
				continue
			}
			if !yield(obj) {
				return
			}
		}
	}
}

// Collect returns every matching object ordered by id.
func (it *Iterator) Collect() []Object {
	var ids = newIDSet()
	for obj := range it.All() {
		ids = ids.Add(obj.ID)
	}
	return it.catalog.objectsByID(ids.Sorted())
}

// Count returns the number of matching objects.
func (it *Iterator) Count() int {
	n := 0
	for range it.All() {
		n++
	}
	return n
}
