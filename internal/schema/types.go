package schema

import "github.com/google/uuid"

// Names of the polymorphic pseudo-types.
const (
	AnyTypeName   = "std::anytype"
	AnyScalarName = "std::anyscalar"
)

// Type is a catalog type reference: an Object of a type variant, or an
// Array of another Type.
type Type interface {
	isType()
}

func (Object) isType() {}

// Array is the collection type array<Element>.
type Array struct {
	Element Type
}

func (Array) isType() {}

// TypesEqual reports structural equality of two types.
func TypesEqual(a, b Type) bool {
	switch at := a.(type) {
	case Object:
		bt, ok := b.(Object)
		return ok && at.ID == bt.ID
	case Array:
		bt, ok := b.(Array)
		return ok && TypesEqual(at.Element, bt.Element)
	}
	return a == nil && b == nil
}

// TypeName renders a type for messages and records.
func (c *Catalog) TypeName(t Type) string {
	switch tt := t.(type) {
	case Object:
		if n := c.NameOf(tt); !n.IsZero() {
			return n.String()
		}
		return tt.ID.String()
	case Array:
		return "array<" + c.TypeName(tt.Element) + ">"
	}
	return "<unknown>"
}

// IsPolymorphic reports whether t is, or contains, a pseudo-type.
func (c *Catalog) IsPolymorphic(t Type) bool {
	switch tt := t.(type) {
	case Object:
		return tt.Variant == VariantPseudoType
	case Array:
		return c.IsPolymorphic(tt.Element)
	}
	return false
}

// IsScalar reports whether t is a scalar type or the anyscalar pseudo-type.
func (c *Catalog) IsScalar(t Type) bool {
	o, ok := t.(Object)
	if !ok {
		return false
	}
	if o.Variant == VariantScalarType {
		return true
	}
	return o.Variant == VariantPseudoType && c.NameOf(o).String() == AnyScalarName
}

// ResolvePolymorphic returns the concrete type bound by matching the
// polymorphic type poly against concrete, or nil when they do not match.
func (c *Catalog) ResolvePolymorphic(poly, concrete Type) Type {
	if concrete == nil {
		return nil
	}
	switch pt := poly.(type) {
	case Object:
		if pt.Variant != VariantPseudoType {
			return nil
		}
		switch c.NameOf(pt).String() {
		case AnyTypeName:
			return concrete
		case AnyScalarName:
			if c.IsScalar(concrete) {
				return concrete
			}
		}
		return nil
	case Array:
		ct, ok := concrete.(Array)
		if !ok {
			return nil
		}
		return c.ResolvePolymorphic(pt.Element, ct.Element)
	}
	return nil
}

// ToNonPolymorphic substitutes concrete for the pseudo-type inside t.
func (c *Catalog) ToNonPolymorphic(t, concrete Type) Type {
	switch tt := t.(type) {
	case Object:
		if tt.Variant == VariantPseudoType {
			return concrete
		}
		return tt
	case Array:
		return Array{Element: c.ToNonPolymorphic(tt.Element, concrete)}
	}
	return t
}

// IsSubtype reports whether a is b or inherits from it.
// Every type is a subtype of anytype; scalars are subtypes of anyscalar.
func (c *Catalog) IsSubtype(a, b Type) bool {
	if TypesEqual(a, b) {
		return true
	}
	if bo, ok := b.(Object); ok && bo.Variant == VariantPseudoType {
		switch c.NameOf(bo).String() {
		case AnyTypeName:
			return a != nil
		case AnyScalarName:
			return c.IsScalar(a)
		}
		return false
	}
	switch at := a.(type) {
	case Array:
		bt, ok := b.(Array)
		return ok && c.IsSubtype(at.Element, bt.Element)
	case Object:
		bo, ok := b.(Object)
		if !ok {
			return false
		}
		for _, anc := range c.Ancestors(at) {
			if anc.ID == bo.ID {
				return true
			}
		}
	}
	return false
}

// Ancestors returns every transitive base of t, nearest first.
func (c *Catalog) Ancestors(t Object) []Object {
	var out []Object
	seen := map[uuid.UUID]bool{t.ID: true}
	queue := []Object{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, base := range c.ObjectListField(cur, FieldBases) {
			if seen[base.ID] {
				continue
			}
			seen[base.ID] = true
			out = append(out, base)
			queue = append(queue, base)
		}
	}
	return out
}

// ImplicitCastDistance returns the length of the shortest chain of implicit
// casts that turns from into a subtype of to, or -1 when there is none.
// Arrays cast element-wise.
func (c *Catalog) ImplicitCastDistance(from, to Type) int {
	if c.IsSubtype(from, to) {
		return 0
	}
	switch ft := from.(type) {
	case Array:
		tt, ok := to.(Array)
		if !ok {
			return -1
		}
		return c.ImplicitCastDistance(ft.Element, tt.Element)
	case Object:
		type step struct {
			t    Object
			dist int
		}
		seen := map[uuid.UUID]bool{ft.ID: true}
		queue := []step{{t: ft}}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, cast := range c.GetCastsFromType(cur.t, CastFilter{Implicit: true}) {
				target, ok := c.ObjectField(cast, FieldToType)
				if !ok || seen[target.ID] {
					continue
				}
				if c.IsSubtype(target, to) {
					return cur.dist + 1
				}
				seen[target.ID] = true
				queue = append(queue, step{t: target, dist: cur.dist + 1})
			}
		}
	}
	return -1
}

// ImplicitlyCastable reports whether at least one implicit cast is needed
// and available to use a value of type from where to is expected.
func (c *Catalog) ImplicitlyCastable(from, to Type) bool {
	return c.ImplicitCastDistance(from, to) > 0
}
