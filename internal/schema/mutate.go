package schema

import (
	"sort"

	"github.com/benbjohnson/immutable"
	"github.com/google/uuid"
)

// Add returns a catalog that also contains a new object.
//
// The "name" field is required. Adding fails with NAME_CONFLICT when the
// name is taken, and with MODULE_NOT_FOUND when the object is not a module
// and its module has not been added yet.
func (c *Catalog) Add(id uuid.UUID, v Variant, fields Fields) (*Catalog, error) {
	if _, ok := fieldTables[v]; !ok {
		return c, newError(ErrCodeInvalidField, "cannot add object of unknown variant %s", v)
	}
	if id == uuid.Nil {
		return c, newError(ErrCodeInvalidField, "cannot add %s with a nil id", v)
	}
	if _, exists := c.idToType.Get(id); exists {
		return c, newError(ErrCodeDuplicateID, "id %s is already present in %s", id, c)
	}

	data := immutable.NewMap[string, any](stringKeys)
	for _, f := range sortedKeys(fields) {
		val, err := normalizeValue(v, f, fields[f])
		if err != nil {
			return c, err
		}
		data = data.Set(f, val)
	}

	raw, ok := data.Get(FieldName)
	if !ok {
		return c, newError(ErrCodeInvalidField, "cannot add %s without a name", v)
	}
	name := raw.(Name)

	if _, taken := c.nameToID.Get(name.String()); taken {
		return c, newError(ErrCodeNameConflict, "name %s is in use already", name)
	}

	modules := c.modules
	if v == VariantModule {
		modules = modules.Set(name.String(), id)
	} else if _, ok := c.modules.Get(name.Module); !ok {
		return c, newError(ErrCodeModuleNotFound, "module %q is not in this schema", name.Module)
	}

	nameToID, shortnameToID, err := c.updateObjName(id, v, nil, &name)
	if err != nil {
		return c, err
	}

	next := c.derive()
	next.idToData = c.idToData.Set(id, data)
	next.idToType = c.idToType.Set(id, v)
	next.nameToID = nameToID
	next.shortnameToID = shortnameToID
	next.modules = modules
	next.refsTo = updateRefsTo(c.refsTo, id, v, nil, refsOf(v, data.Get))
	return next, nil
}

// Delete returns a catalog without obj. Every index entry mentioning it,
// including reverse references it contributed, is removed.
func (c *Catalog) Delete(obj Object) (*Catalog, error) {
	data, ok := c.data(obj.ID)
	if !ok {
		return c, newError(ErrCodeItemNotFound, "cannot delete %s: not in %s", obj, c)
	}
	v, _ := c.idToType.Get(obj.ID)

	nameToID, shortnameToID := c.nameToID, c.shortnameToID
	modules := c.modules
	if raw, ok := data.Get(FieldName); ok {
		name := raw.(Name)
		var err error
		nameToID, shortnameToID, err = c.updateObjName(obj.ID, v, &name, nil)
		if err != nil {
			return c, err
		}
		if v == VariantModule {
			modules = modules.Delete(name.String())
		}
	}

	next := c.derive()
	next.idToData = c.idToData.Delete(obj.ID)
	next.idToType = c.idToType.Delete(obj.ID)
	next.nameToID = nameToID
	next.shortnameToID = shortnameToID
	next.modules = modules
	next.refsTo = updateRefsTo(c.refsTo, obj.ID, v, refsOf(v, data.Get), nil)
	return next, nil
}

// Discard is Delete that tolerates a missing object.
func (c *Catalog) Discard(obj Object) *Catalog {
	if !c.Has(obj) {
		return c
	}
	next, err := c.Delete(obj)
	if err != nil {
		return c
	}
	return next
}

// SetField returns a catalog where obj's field holds value.
// A nil value is the same as UnsetField.
func (c *Catalog) SetField(obj Object, field string, value any) (*Catalog, error) {
	if value == nil {
		return c.UnsetField(obj, field)
	}
	return c.Update(obj, Fields{field: value})
}

// UnsetField returns a catalog where obj no longer has field.
// Unsetting on a missing object or an absent field returns the receiver.
func (c *Catalog) UnsetField(obj Object, field string) (*Catalog, error) {
	data, ok := c.data(obj.ID)
	if !ok {
		return c, nil
	}
	orig, ok := data.Get(field)
	if !ok {
		return c, nil
	}
	v, _ := c.idToType.Get(obj.ID)

	nameToID, shortnameToID := c.nameToID, c.shortnameToID
	modules := c.modules
	if field == FieldName {
		name := orig.(Name)
		var err error
		nameToID, shortnameToID, err = c.updateObjName(obj.ID, v, &name, nil)
		if err != nil {
			return c, err
		}
		if v == VariantModule {
			modules = modules.Delete(name.String())
		}
	}

	refsTo := c.refsTo
	if kind, _ := FieldKindOf(v, field); kind.IsReference() {
		refsTo = updateRefsTo(refsTo, obj.ID, v,
			map[string][]uuid.UUID{field: refIDs(orig)},
			map[string][]uuid.UUID{field: nil})
	}

	next := c.derive()
	next.idToData = c.idToData.Set(obj.ID, data.Delete(field))
	next.nameToID = nameToID
	next.shortnameToID = shortnameToID
	next.modules = modules
	next.refsTo = refsTo
	return next, nil
}

// Update applies several field changes at once and produces exactly one new
// generation. A nil value unsets the field. Renames update the name indices;
// reference fields are diffed.
func (c *Catalog) Update(obj Object, updates Fields) (*Catalog, error) {
	data, ok := c.data(obj.ID)
	if !ok {
		return c, newError(ErrCodeItemNotFound, "cannot update %s: not in %s", obj, c)
	}
	if len(updates) == 0 {
		return c, nil
	}
	v, _ := c.idToType.Get(obj.ID)

	newData := data
	origRefs := make(map[string][]uuid.UUID)
	newRefs := make(map[string][]uuid.UUID)
	for _, f := range sortedKeys(updates) {
		if _, ok := FieldKindOf(v, f); !ok {
			return c, newError(ErrCodeInvalidField, "%s has no field %q", v, f)
		}
		var val any
		if updates[f] != nil {
			var err error
			if val, err = normalizeValue(v, f, updates[f]); err != nil {
				return c, err
			}
		}
		if kind, _ := FieldKindOf(v, f); kind.IsReference() {
			prev, _ := data.Get(f)
			origRefs[f] = refIDs(prev)
			newRefs[f] = refIDs(val)
		}
		if val == nil {
			newData = newData.Delete(f)
		} else {
			newData = newData.Set(f, val)
		}
	}

	nameToID, shortnameToID := c.nameToID, c.shortnameToID
	modules := c.modules
	if raw, renamed := updates[FieldName]; renamed {
		var oldName, newName *Name
		if prev, ok := data.Get(FieldName); ok {
			n := prev.(Name)
			oldName = &n
		}
		if raw != nil {
			n := raw.(Name)
			newName = &n
		}
		if !sameName(oldName, newName) {
			var err error
			nameToID, shortnameToID, err = c.updateObjName(obj.ID, v, oldName, newName)
			if err != nil {
				return c, err
			}
			if v == VariantModule {
				if oldName != nil {
					modules = modules.Delete(oldName.String())
				}
				if newName != nil {
					modules = modules.Set(newName.String(), obj.ID)
				}
			}
		}
	}

	next := c.derive()
	next.idToData = c.idToData.Set(obj.ID, newData)
	next.nameToID = nameToID
	next.shortnameToID = shortnameToID
	next.modules = modules
	next.refsTo = updateRefsTo(c.refsTo, obj.ID, v, origRefs, newRefs)
	return next, nil
}

// updateObjName moves an object between names in the name indices.
// Either side may be nil for a pure insert or a pure removal.
func (c *Catalog) updateObjName(id uuid.UUID, v Variant, oldName, newName *Name) (
	*immutable.Map[string, uuid.UUID], *immutable.Map[groupKey, IDSet], error,
) {
	nameToID := c.nameToID
	shortnameToID := c.shortnameToID

	if oldName != nil {
		nameToID = nameToID.Delete(oldName.String())
		if v.Overloadable() {
			key := groupKey{variant: v, name: Shortname(*oldName).String()}
			if ids, ok := shortnameToID.Get(key); ok {
				ids = ids.Remove(id)
				if ids.Len() == 0 {
					shortnameToID = shortnameToID.Delete(key)
				} else {
					shortnameToID = shortnameToID.Set(key, ids)
				}
			}
		}
	}

	if newName != nil {
		if _, taken := nameToID.Get(newName.String()); taken {
			return c.nameToID, c.shortnameToID,
				newError(ErrCodeNameConflict, "name %s is in use already", *newName)
		}
		nameToID = nameToID.Set(newName.String(), id)
		if v.Overloadable() {
			key := groupKey{variant: v, name: Shortname(*newName).String()}
			ids, _ := shortnameToID.Get(key)
			shortnameToID = shortnameToID.Set(key, ids.Add(id))
		}
	}

	return nameToID, shortnameToID, nil
}

// updateRefsTo applies the reverse-reference delta of one object.
// orig and next map field names to the ids the field referenced before and
// after the change; ids referenced on both sides are left untouched.
func updateRefsTo(refsTo *immutable.Map[uuid.UUID, refMap], owner uuid.UUID, v Variant,
	orig, next map[string][]uuid.UUID,
) *immutable.Map[uuid.UUID, refMap] {
	fields := make(map[string]bool, len(orig)+len(next))
	for f := range orig {
		fields[f] = true
	}
	for f := range next {
		fields[f] = true
	}
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)

	for _, f := range names {
		key := refKey{variant: v, field: f}
		added, removed := diffIDs(orig[f], next[f])

		for _, target := range added {
			refs, ok := refsTo.Get(target)
			if !ok {
				refs = immutable.NewMap[refKey, IDSet](refKeyHasher{})
			}
			set, _ := refs.Get(key)
			refsTo = refsTo.Set(target, refs.Set(key, set.Add(owner)))
		}

		for _, target := range removed {
			refs, ok := refsTo.Get(target)
			if !ok {
				continue
			}
			set, ok := refs.Get(key)
			if !ok {
				continue
			}
			set = set.Remove(owner)
			if set.Len() == 0 {
				refs = refs.Delete(key)
			} else {
				refs = refs.Set(key, set)
			}
			if refs.Len() == 0 {
				refsTo = refsTo.Delete(target)
			} else {
				refsTo = refsTo.Set(target, refs)
			}
		}
	}
	return refsTo
}

func sameName(a, b *Name) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sortedKeys(f Fields) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
