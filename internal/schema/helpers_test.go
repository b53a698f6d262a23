package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// builder grows a catalog in tests, failing the test on any error.
type builder struct {
	t   *testing.T
	c   *Catalog
	gen NameGenerator
}

func newBuilder(t *testing.T, modules ...string) *builder {
	t.Helper()
	b := &builder{t: t, c: New()}
	for _, m := range modules {
		b.add(VariantModule, Name{Name: m}, nil)
	}
	return b
}

func (b *builder) add(v Variant, name Name, fields Fields) Object {
	b.t.Helper()
	if fields == nil {
		fields = Fields{}
	}
	fields[FieldName] = name
	id := b.gen.Generate(name)
	next, err := b.c.Add(id, v, fields)
	require.NoError(b.t, err)
	b.c = next
	return Object{ID: id, Variant: v}
}

func (b *builder) scalar(name string, bases ...Object) Object {
	b.t.Helper()
	return b.add(VariantScalarType, ParseName(name), Fields{FieldBases: ObjectList(bases)})
}

func (b *builder) pseudo(name string) Object {
	b.t.Helper()
	return b.add(VariantPseudoType, ParseName(name), nil)
}

func (b *builder) cast(from, to Object, implicit bool) Object {
	b.t.Helper()
	name := SpecializedName(ParseName("std::cast"), b.c.TypeName(from), b.c.TypeName(to))
	return b.add(VariantCast, name, Fields{
		FieldFromType:      from,
		FieldToType:        to,
		FieldAllowImplicit: implicit,
	})
}

// fn adds a function with one positional parameter per type.
func (b *builder) fn(short string, ret Type, params ...Type) Object {
	b.t.Helper()
	shortName := ParseName(short)
	quals := make([]string, len(params))
	for i, p := range params {
		quals[i] = b.c.TypeName(p)
	}
	full := SpecializedName(shortName, quals...)

	var paramObjs ObjectList
	for i, p := range params {
		pname := string(rune('a' + i))
		paramObjs = append(paramObjs, b.add(VariantParameter,
			Name{Module: shortName.Module, Name: full.Name + "@" + pname},
			Fields{
				FieldParamName:   pname,
				FieldNum:         i,
				FieldKindOfParam: string(PositionalParam),
				FieldTypemod:     string(SingletonType),
				FieldType:        p,
			}))
	}
	return b.add(VariantFunction, full, Fields{
		FieldParams:     paramObjs,
		FieldReturnType: ret,
	})
}
