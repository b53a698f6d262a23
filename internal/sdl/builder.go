package sdl

import (
	"fmt"
	"strings"

	"github.com/roach88/qlbind/internal/schema"
)

// Builder grows a catalog one declaration at a time. Each method derives
// a new catalog value; Catalog returns the latest one.
type Builder struct {
	catalog *schema.Catalog
	ids     schema.IDGenerator
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBase starts from an existing catalog instead of an empty one.
func WithBase(c *schema.Catalog) BuilderOption {
	return func(b *Builder) {
		b.catalog = c
	}
}

// WithIDGenerator sets how object ids are minted.
// The default derives them from full names.
func WithIDGenerator(g schema.IDGenerator) BuilderOption {
	return func(b *Builder) {
		b.ids = g
	}
}

// NewBuilder creates a builder over an empty catalog.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		catalog: schema.New(),
		ids:     schema.NameGenerator{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Catalog returns the current catalog value.
func (b *Builder) Catalog() *schema.Catalog {
	return b.catalog
}

func (b *Builder) add(v schema.Variant, name schema.Name, fields schema.Fields) (schema.Object, error) {
	if fields == nil {
		fields = schema.Fields{}
	}
	fields[schema.FieldName] = name
	id := b.ids.Generate(name)
	next, err := b.catalog.Add(id, v, fields)
	if err != nil {
		return schema.Object{}, err
	}
	b.catalog = next
	return schema.Object{ID: id, Variant: v}, nil
}

// AddModule declares a module.
func (b *Builder) AddModule(name string) (schema.Object, error) {
	return b.add(schema.VariantModule, schema.Name{Name: name}, nil)
}

// AddType declares a scalar, object or pseudo type without bases.
// Bases are set afterwards with SetBases so declarations may refer to each
// other in any order.
func (b *Builder) AddType(v schema.Variant, fullname string, abstract bool) (schema.Object, error) {
	if !v.IsType() {
		return schema.Object{}, fmt.Errorf("AddType: %s is not a type variant", v)
	}
	fields := schema.Fields{}
	if abstract && v != schema.VariantPseudoType {
		fields[schema.FieldIsAbstract] = true
	}
	return b.add(v, schema.ParseName(fullname), fields)
}

// SetBases sets the direct bases of a type.
func (b *Builder) SetBases(t schema.Object, bases ...schema.Object) error {
	next, err := b.catalog.SetField(t, schema.FieldBases, schema.ObjectList(bases))
	if err != nil {
		return err
	}
	b.catalog = next
	return nil
}

// CastDecl flags a cast.
type CastDecl struct {
	Implicit   bool
	Assignment bool
}

// AddCast declares a cast between two types.
func (b *Builder) AddCast(from, to schema.Object, decl CastDecl) (schema.Object, error) {
	name := schema.SpecializedName(schema.ParseName("std::cast"),
		b.catalog.TypeName(from), b.catalog.TypeName(to))
	return b.add(schema.VariantCast, name, schema.Fields{
		schema.FieldFromType:        from,
		schema.FieldToType:          to,
		schema.FieldAllowImplicit:   decl.Implicit,
		schema.FieldAllowAssignment: decl.Assignment,
	})
}

// ParamDecl declares one parameter. For a variadic parameter Type is the
// element type; the catalog stores array<Type>.
type ParamDecl struct {
	Name    string
	Kind    schema.ParameterKind
	Typemod schema.TypeModifier
	Type    schema.Type

	// Default is the source text of the default value, nil when required.
	Default *string
}

// FunctionDecl declares one function or operator overload.
type FunctionDecl struct {
	Params        []ParamDecl
	Returns       schema.Type
	ReturnTypemod schema.TypeModifier
	Language      schema.Language
	InitialValue  *string
	FromFunction  string
}

// Default returns a pointer to src, for ParamDecl.Default and
// FunctionDecl.InitialValue.
func Default(src string) *string {
	return &src
}

// AddFunction declares a function overload under its short name.
func (b *Builder) AddFunction(short string, decl FunctionDecl) (schema.Object, error) {
	return b.addCallable(schema.VariantFunction, short, "", decl)
}

// AddOperator declares an operator overload of the given kind, such as INFIX.
func (b *Builder) AddOperator(short, kind string, decl FunctionDecl) (schema.Object, error) {
	return b.addCallable(schema.VariantOperator, short, kind, decl)
}

func (b *Builder) addCallable(v schema.Variant, short, opKind string, decl FunctionDecl) (schema.Object, error) {
	shortName := schema.ParseName(short)
	if shortName.Module == "" {
		return schema.Object{}, fmt.Errorf("%s %s: name must be module-qualified", strings.ToLower(v.String()), short)
	}
	if decl.Returns == nil {
		return schema.Object{}, fmt.Errorf("%s %s: return type is required", strings.ToLower(v.String()), short)
	}

	quals := make([]string, len(decl.Params))
	for i, p := range decl.Params {
		quals[i] = b.catalog.TypeName(p.Type)
	}
	full := schema.SpecializedName(shortName, quals...)

	// Parameters are added before the callable; any failure restores start.
	start := b.catalog
	params := make(schema.ObjectList, 0, len(decl.Params))
	for i, p := range decl.Params {
		obj, err := b.addParam(full, i, p)
		if err != nil {
			b.catalog = start
			return schema.Object{}, err
		}
		params = append(params, obj)
	}

	fields := schema.Fields{
		schema.FieldParams:     params,
		schema.FieldReturnType: decl.Returns,
	}
	if decl.ReturnTypemod != "" {
		fields[schema.FieldReturnTypemod] = string(decl.ReturnTypemod)
	}
	if decl.Language != "" {
		fields[schema.FieldLanguage] = string(decl.Language)
	}
	if decl.InitialValue != nil {
		fields[schema.FieldInitialValue] = *decl.InitialValue
	}
	if decl.FromFunction != "" {
		fields[schema.FieldFromFunction] = decl.FromFunction
	}
	if opKind != "" {
		fields[schema.FieldOperatorKind] = opKind
	}
	obj, err := b.add(v, full, fields)
	if err != nil {
		b.catalog = start
	}
	return obj, err
}

func (b *Builder) addParam(fn schema.Name, num int, p ParamDecl) (schema.Object, error) {
	if p.Name == "" {
		return schema.Object{}, fmt.Errorf("%s: parameter #%d has no name", fn, num)
	}
	if p.Type == nil {
		return schema.Object{}, fmt.Errorf("%s: parameter %s has no type", fn, p.Name)
	}
	kind := p.Kind
	if kind == "" {
		kind = schema.PositionalParam
	}
	typemod := p.Typemod
	if typemod == "" {
		typemod = schema.SingletonType
	}
	t := p.Type
	if kind == schema.VariadicParam {
		t = schema.Array{Element: t}
	}
	fields := schema.Fields{
		schema.FieldParamName:   p.Name,
		schema.FieldNum:         num,
		schema.FieldKindOfParam: string(kind),
		schema.FieldTypemod:     string(typemod),
		schema.FieldType:        t,
	}
	if p.Default != nil {
		fields[schema.FieldDefault] = *p.Default
	}
	name := schema.Name{Module: fn.Module, Name: fn.Name + "@" + p.Name}
	return b.add(schema.VariantParameter, name, fields)
}

// ResolveType turns a type reference written in module into a catalog type.
// References are "name", "module::name" or "array<ref>". A bare name is
// looked up in module first, then in std.
func (b *Builder) ResolveType(module, ref string) (schema.Type, error) {
	ref = strings.TrimSpace(ref)
	if inner, ok := strings.CutPrefix(ref, "array<"); ok {
		inner, ok = strings.CutSuffix(inner, ">")
		if !ok {
			return nil, fmt.Errorf("malformed array type %q", ref)
		}
		elem, err := b.ResolveType(module, inner)
		if err != nil {
			return nil, err
		}
		return schema.Array{Element: elem}, nil
	}
	obj, err := b.catalog.Get(ref,
		schema.WithModuleAliases(map[string]string{"": module}),
		schema.WithVariants(schema.VariantScalarType, schema.VariantObjectType, schema.VariantPseudoType),
	)
	if err != nil {
		return nil, fmt.Errorf("unknown type %q in module %s", ref, module)
	}
	return obj, nil
}
