package schema

import (
	"sort"

	"github.com/google/uuid"
)

func (c *Catalog) data(id uuid.UUID) (fieldMap, bool) {
	return c.idToData.Get(id)
}

// Field returns the raw value of an object's field.
// A missing field yields (nil, nil); a missing object is ITEM_NOT_FOUND.
func (c *Catalog) Field(id uuid.UUID, field string) (any, error) {
	data, ok := c.data(id)
	if !ok {
		return nil, newError(ErrCodeItemNotFound, "item %s is not present in %s", id, c)
	}
	v, _ := data.Get(field)
	return v, nil
}

func (c *Catalog) field(obj Object, field string) (any, bool) {
	data, ok := c.data(obj.ID)
	if !ok {
		return nil, false
	}
	return data.Get(field)
}

// NameOf returns the object's full name, or the zero Name if it has none.
func (c *Catalog) NameOf(obj Object) Name {
	v, _ := c.field(obj, FieldName)
	n, _ := v.(Name)
	return n
}

// ShortnameOf returns the object's name without its specialisation suffix.
func (c *Catalog) ShortnameOf(obj Object) Name {
	return Shortname(c.NameOf(obj))
}

// StringField returns a string-kind field.
func (c *Catalog) StringField(obj Object, field string) (string, bool) {
	v, ok := c.field(obj, field)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// BoolField returns a bool-kind field, false when absent.
func (c *Catalog) BoolField(obj Object, field string) bool {
	v, _ := c.field(obj, field)
	b, _ := v.(bool)
	return b
}

// IntField returns an int-kind field.
func (c *Catalog) IntField(obj Object, field string) (int64, bool) {
	v, ok := c.field(obj, field)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

// ObjectField returns an object-kind field.
func (c *Catalog) ObjectField(obj Object, field string) (Object, bool) {
	v, ok := c.field(obj, field)
	if !ok {
		return Object{}, false
	}
	o, ok := v.(Object)
	return o, ok
}

// ObjectListField returns an object-list field, nil when absent.
func (c *Catalog) ObjectListField(obj Object, field string) ObjectList {
	v, _ := c.field(obj, field)
	l, _ := v.(ObjectList)
	return l
}

// TypeField returns a type-kind field.
func (c *Catalog) TypeField(obj Object, field string) (Type, bool) {
	v, ok := c.field(obj, field)
	if !ok {
		return nil, false
	}
	t, ok := v.(Type)
	return t, ok
}

// FieldNames returns the names of the fields set on obj.
func (c *Catalog) FieldNames(obj Object) []string {
	data, ok := c.data(obj.ID)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, data.Len())
	itr := data.Iterator()
	for !itr.Done() {
		k, _, _ := itr.Next()
		out = append(out, k)
	}
	sortStrings(out)
	return out
}

// refsOf collects, per reference field, the ids a field map points at.
func refsOf(v Variant, get func(string) (any, bool)) map[string][]uuid.UUID {
	out := make(map[string][]uuid.UUID)
	for _, f := range referenceFields(v) {
		if val, ok := get(f); ok {
			out[f] = refIDs(val)
		}
	}
	return out
}

func sortStrings(s []string) {
	sort.Strings(s)
}
