package schema

type referrerQuery struct {
	variant Variant
	field   string
}

// ReferrerOption narrows GetReferrers.
type ReferrerOption func(*referrerQuery)

// ReferrerVariant keeps only referrers of the given variant.
func ReferrerVariant(v Variant) ReferrerOption {
	return func(q *referrerQuery) {
		q.variant = v
	}
}

// ReferrerField keeps only references held in the given field.
// It requires ReferrerVariant.
func ReferrerField(field string) ReferrerOption {
	return func(q *referrerQuery) {
		q.field = field
	}
}

// GetReferrers returns the objects that reference obj, ordered by id.
// An unknown obj has no referrers.
func (c *Catalog) GetReferrers(obj Object, opts ...ReferrerOption) ([]Object, error) {
	var q referrerQuery
	for _, opt := range opts {
		opt(&q)
	}
	if q.field != "" && q.variant == VariantInvalid {
		return nil, newError(ErrCodeInvalidField, "referrer field filter %q requires a variant filter", q.field)
	}

	key := referrerKey{id: obj.ID, variant: q.variant, field: q.field}
	return memoize(c.memo, c.memo.referrers, key, func() []Object {
		refs, ok := c.refsTo.Get(obj.ID)
		if !ok {
			return []Object{}
		}
		set := newIDSet()
		itr := refs.Iterator()
		for !itr.Done() {
			k, ids, _ := itr.Next()
			if q.variant != VariantInvalid && k.variant != q.variant {
				continue
			}
			if q.field != "" && k.field != q.field {
				continue
			}
			for _, id := range ids.Sorted() {
				set = set.Add(id)
			}
		}
		return c.objectsByID(set.Sorted())
	}), nil
}

// CastFilter restricts cast lookups to casts with the given flags set.
// The zero value accepts every cast.
type CastFilter struct {
	Implicit   bool
	Assignment bool
}

// GetCastsToType returns the casts whose target is t.
func (c *Catalog) GetCastsToType(t Object, f CastFilter) []Object {
	return c.castsFor(t, FieldToType, f)
}

// GetCastsFromType returns the casts whose source is t.
func (c *Catalog) GetCastsFromType(t Object, f CastFilter) []Object {
	return c.castsFor(t, FieldFromType, f)
}

func (c *Catalog) castsFor(t Object, field string, f CastFilter) []Object {
	key := castKey{id: t.ID, field: field, implicit: f.Implicit, assignment: f.Assignment}
	return memoize(c.memo, c.memo.casts, key, func() []Object {
		all, _ := c.GetReferrers(t, ReferrerVariant(VariantCast), ReferrerField(field))
		out := make([]Object, 0, len(all))
		for _, cast := range all {
			if f.Implicit && !c.BoolField(cast, FieldAllowImplicit) {
				continue
			}
			if f.Assignment && !c.BoolField(cast, FieldAllowAssignment) {
				continue
			}
			out = append(out, cast)
		}
		return out
	})
}
