package schema

import (
	"hash/fnv"

	"github.com/benbjohnson/immutable"
	"github.com/google/uuid"
)

// stringKeys hashes string-keyed persistent maps. The remaining key types
// have no built-in hasher and get their own below.
var stringKeys = immutable.NewHasher("")

type uuidHasher struct{}

func (uuidHasher) Hash(id uuid.UUID) uint32 {
	h := fnv.New32a()
	h.Write(id[:])
	return h.Sum32()
}

func (uuidHasher) Equal(a, b uuid.UUID) bool { return a == b }

// groupKey identifies an overload group: (variant, "module::short").
type groupKey struct {
	variant Variant
	name    string
}

type groupKeyHasher struct{}

func (groupKeyHasher) Hash(k groupKey) uint32 {
	h := fnv.New32a()
	h.Write([]byte{byte(k.variant)})
	h.Write([]byte(k.name))
	return h.Sum32()
}

func (groupKeyHasher) Equal(a, b groupKey) bool { return a == b }

// refKey identifies the referring side of a reverse reference:
// the owner's variant and the field that holds the reference.
type refKey struct {
	variant Variant
	field   string
}

type refKeyHasher struct{}

func (refKeyHasher) Hash(k refKey) uint32 {
	h := fnv.New32a()
	h.Write([]byte{byte(k.variant)})
	h.Write([]byte(k.field))
	return h.Sum32()
}

func (refKeyHasher) Equal(a, b refKey) bool { return a == b }
