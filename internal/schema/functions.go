package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ParameterKind is how a parameter is matched against call arguments.
type ParameterKind string

const (
	PositionalParam ParameterKind = "POSITIONAL"
	NamedOnlyParam  ParameterKind = "NAMED_ONLY"
	VariadicParam   ParameterKind = "VARIADIC"
)

// TypeModifier is the cardinality qualifier on a parameter or return type.
type TypeModifier string

const (
	SingletonType TypeModifier = "SINGLETON"
	OptionalType  TypeModifier = "OPTIONAL"
	SetOfType     TypeModifier = "SET OF"
)

// Language is the implementation language of a function.
type Language string

const (
	LanguageQL     Language = "ql"
	LanguageNative Language = "native"
)

// Param is a decoded Parameter object.
type Param struct {
	Object     Object
	Name       string
	Num        int
	Kind       ParameterKind
	Typemod    TypeModifier
	Type       Type
	Default    string
	HasDefault bool
}

// Param decodes a Parameter object.
func (c *Catalog) Param(obj Object) (Param, error) {
	if obj.Variant != VariantParameter || !c.Has(obj) {
		return Param{}, newError(ErrCodeItemNotFound, "%s is not a parameter of %s", obj, c)
	}
	p := Param{Object: obj}
	p.Name, _ = c.StringField(obj, FieldParamName)
	num, _ := c.IntField(obj, FieldNum)
	p.Num = int(num)
	kind, _ := c.StringField(obj, FieldKindOfParam)
	p.Kind = ParameterKind(kind)
	if p.Kind == "" {
		p.Kind = PositionalParam
	}
	mod, _ := c.StringField(obj, FieldTypemod)
	p.Typemod = TypeModifier(mod)
	if p.Typemod == "" {
		p.Typemod = SingletonType
	}
	t, ok := c.TypeField(obj, FieldType)
	if !ok {
		return Param{}, newError(ErrCodeInvalidField, "parameter %s has no type", c.NameOf(obj))
	}
	p.Type = t
	p.Default, p.HasDefault = c.StringField(obj, FieldDefault)
	return p, nil
}

// FuncParams is a callable's parameter list ordered by position.
type FuncParams []Param

// FuncParams decodes the parameters of a function or operator.
func (c *Catalog) FuncParams(fn Object) (FuncParams, error) {
	objs := c.ObjectListField(fn, FieldParams)
	out := make(FuncParams, 0, len(objs))
	for _, obj := range objs {
		p, err := c.Param(obj)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", c.NameOf(fn), err)
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Num < out[j].Num })
	return out, nil
}

// ByName returns the parameter with the given name.
func (p FuncParams) ByName(name string) (Param, bool) {
	for _, param := range p {
		if param.Name == name {
			return param, true
		}
	}
	return Param{}, false
}

// IsPolymorphic reports whether any parameter has a polymorphic type.
func (p FuncParams) IsPolymorphic(c *Catalog) bool {
	for _, param := range p {
		if c.IsPolymorphic(param.Type) {
			return true
		}
	}
	return false
}

// PgParams is the parameter list in backend binding order.
type PgParams struct {
	Params                 []Param
	HasParamWithoutDefault bool
}

// PgParams orders parameters named-only first, then positional, then the
// variadic one, and notes whether any of them lacks a default. A variadic
// parameter never carries a default.
func (p FuncParams) PgParams() PgParams {
	var named, positional, variadic []Param
	hasWithoutDefault := false
	for _, param := range p {
		switch param.Kind {
		case NamedOnlyParam:
			named = append(named, param)
		case VariadicParam:
			variadic = append(variadic, param)
		default:
			positional = append(positional, param)
		}
		if !param.HasDefault || param.Kind == VariadicParam {
			hasWithoutDefault = true
		}
	}
	ordered := make([]Param, 0, len(p))
	ordered = append(ordered, named...)
	ordered = append(ordered, positional...)
	ordered = append(ordered, variadic...)
	return PgParams{Params: ordered, HasParamWithoutDefault: hasWithoutDefault}
}

// ReturnType returns the declared return type of a callable.
func (c *Catalog) ReturnType(fn Object) (Type, error) {
	t, ok := c.TypeField(fn, FieldReturnType)
	if !ok {
		return nil, newError(ErrCodeInvalidField, "function %s has no return type", c.NameOf(fn))
	}
	return t, nil
}

// ReturnTypemod returns the cardinality of a callable's result.
func (c *Catalog) ReturnTypemod(fn Object) TypeModifier {
	mod, _ := c.StringField(fn, FieldReturnTypemod)
	if mod == "" {
		return SingletonType
	}
	return TypeModifier(mod)
}

// FuncLanguage returns the implementation language, native when unset.
func (c *Catalog) FuncLanguage(fn Object) Language {
	lang, _ := c.StringField(fn, FieldLanguage)
	if lang == "" {
		return LanguageNative
	}
	return Language(lang)
}

// InitialValue returns the aggregate initial-value fragment, if declared.
func (c *Catalog) InitialValue(fn Object) (string, bool) {
	return c.StringField(fn, FieldInitialValue)
}

// Signature renders a callable as "module::name(p: type, ...) -> type".
func (c *Catalog) Signature(fn Object) string {
	var b strings.Builder
	b.WriteString(c.ShortnameOf(fn).String())
	b.WriteByte('(')
	params, _ := c.FuncParams(fn)
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		switch p.Kind {
		case NamedOnlyParam:
			b.WriteString("NAMED ONLY ")
		case VariadicParam:
			b.WriteString("VARIADIC ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		if p.Typemod != SingletonType {
			b.WriteString(string(p.Typemod))
			b.WriteByte(' ')
		}
		t := p.Type
		if arr, ok := t.(Array); ok && p.Kind == VariadicParam {
			t = arr.Element
		}
		b.WriteString(c.TypeName(t))
		if p.HasDefault {
			b.WriteString(" = ")
			b.WriteString(p.Default)
		}
	}
	b.WriteString(") -> ")
	if mod := c.ReturnTypemod(fn); mod != SingletonType {
		b.WriteString(string(mod))
		b.WriteByte(' ')
	}
	if rt, err := c.ReturnType(fn); err == nil {
		b.WriteString(c.TypeName(rt))
	}
	return b.String()
}
