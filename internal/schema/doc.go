// Package schema provides the immutable, versioned schema catalog.
//
// A Catalog holds every declared schema object (modules, types, functions,
// operators, parameters, casts) together with the auxiliary indices the
// compiler needs: name lookup, overload groups and reverse references.
//
// ARCHITECTURE:
//
// Persistent Values:
// Every index is a hash-array-mapped trie (github.com/benbjohnson/immutable).
// Mutating operations (Add, Delete, SetField, UnsetField, Update) never touch
// the receiver; they return a new *Catalog that shares all unaffected
// structure with its parent. Holding a reference to an older value is a
// snapshot; dropping the newer one is a rollback.
//
//	c0 := schema.New()
//	c1, _ := c0.Add(id, schema.VariantModule, schema.Fields{"name": schema.Name{Name: "std"}})
//	// c0 still has no modules, c1 has one.
//
// Indices:
//   - idToData:      object id → field map (itself persistent)
//   - idToType:      object id → Variant
//   - nameToID:      full name → object id (names are unique per value)
//   - shortnameToID: (variant, module::short) → ids, for overloadable variants only
//   - refsTo:        referenced id → (owner variant, field) → referrer ids
//   - modules:       module name → module id
//
// CRITICAL PATTERNS:
//
// Incremental Backreferences:
// refsTo is maintained field by field. A field change diffs the old and new
// referenced id sets; ids present in both are left untouched.
//
// Closed Variants:
// Object kinds are a closed enum (Variant). Every variant declares its field
// table; values are validated against it on write.
//
// Per-Value Memoisation:
// Overload groups, referrer sets and cast sets are memoised on the catalog
// value that answered them. Derived values start with an empty memo, so the
// cache never needs invalidation.
package schema
