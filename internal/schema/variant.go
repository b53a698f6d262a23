package schema

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Variant is the closed set of schema object kinds.
type Variant uint8

const (
	VariantInvalid Variant = iota
	VariantModule
	VariantScalarType
	VariantObjectType
	VariantPseudoType
	VariantFunction
	VariantOperator
	VariantParameter
	VariantCast
)

var variantNames = map[Variant]string{
	VariantModule:     "Module",
	VariantScalarType: "ScalarType",
	VariantObjectType: "ObjectType",
	VariantPseudoType: "PseudoType",
	VariantFunction:   "Function",
	VariantOperator:   "Operator",
	VariantParameter:  "Parameter",
	VariantCast:       "Cast",
}

// String returns the variant's schema class name.
func (v Variant) String() string {
	if s, ok := variantNames[v]; ok {
		return s
	}
	return fmt.Sprintf("Variant(%d)", uint8(v))
}

// ParseVariant is the inverse of Variant.String.
func ParseVariant(s string) (Variant, bool) {
	for v, name := range variantNames {
		if name == s {
			return v, true
		}
	}
	return VariantInvalid, false
}

// Overloadable reports whether objects of this variant share a short name
// with other members of an overload group.
func (v Variant) Overloadable() bool {
	return v == VariantFunction || v == VariantOperator
}

// IsType reports whether objects of this variant can appear as a Type.
func (v Variant) IsType() bool {
	return v == VariantScalarType || v == VariantObjectType || v == VariantPseudoType
}

// FieldKind describes the Go representation of a field value.
type FieldKind uint8

const (
	KindString     FieldKind = iota + 1 // string
	KindBool                            // bool
	KindInt                             // int64
	KindName                            // Name
	KindObject                          // Object
	KindObjectList                      // ObjectList
	KindType                            // Type (Object or Array)
)

// IsReference reports whether values of this kind point at other objects.
func (k FieldKind) IsReference() bool {
	return k == KindObject || k == KindObjectList || k == KindType
}

// Field names shared across variants.
const (
	FieldName            = "name"
	FieldBases           = "bases"
	FieldIsAbstract      = "is_abstract"
	FieldVirtualChildren = "virtual_children"
	FieldParams          = "params"
	FieldReturnType      = "return_type"
	FieldReturnTypemod   = "return_typemod"
	FieldLanguage        = "language"
	FieldInitialValue    = "initial_value"
	FieldFromFunction    = "from_function"
	FieldOperatorKind    = "operator_kind"
	FieldParamName       = "param_name"
	FieldNum             = "num"
	FieldKindOfParam     = "kind"
	FieldTypemod         = "typemod"
	FieldType            = "type"
	FieldDefault         = "default"
	FieldFromType        = "from_type"
	FieldToType          = "to_type"
	FieldAllowImplicit   = "allow_implicit"
	FieldAllowAssignment = "allow_assignment"
)

var typeFields = map[string]FieldKind{
	FieldName:            KindName,
	FieldBases:           KindObjectList,
	FieldIsAbstract:      KindBool,
	FieldVirtualChildren: KindObjectList,
}

var callableFields = map[string]FieldKind{
	FieldName:          KindName,
	FieldParams:        KindObjectList,
	FieldReturnType:    KindType,
	FieldReturnTypemod: KindString,
	FieldLanguage:      KindString,
	FieldInitialValue:  KindString,
	FieldFromFunction:  KindString,
}

var fieldTables = map[Variant]map[string]FieldKind{
	VariantModule:     {FieldName: KindName},
	VariantScalarType: typeFields,
	VariantObjectType: typeFields,
	VariantPseudoType: {FieldName: KindName},
	VariantFunction:   callableFields,
	VariantOperator: func() map[string]FieldKind {
		m := map[string]FieldKind{FieldOperatorKind: KindString}
		for k, v := range callableFields {
			m[k] = v
		}
		return m
	}(),
	VariantParameter: {
		FieldName:        KindName,
		FieldParamName:   KindString,
		FieldNum:         KindInt,
		FieldKindOfParam: KindString,
		FieldTypemod:     KindString,
		FieldType:        KindType,
		FieldDefault:     KindString,
	},
	VariantCast: {
		FieldName:            KindName,
		FieldFromType:        KindObject,
		FieldToType:          KindObject,
		FieldAllowImplicit:   KindBool,
		FieldAllowAssignment: KindBool,
		FieldLanguage:        KindString,
		FieldFromFunction:    KindString,
	},
}

// FieldKindOf returns the declared kind of a variant's field.
func FieldKindOf(v Variant, field string) (FieldKind, bool) {
	table, ok := fieldTables[v]
	if !ok {
		return 0, false
	}
	k, ok := table[field]
	return k, ok
}

// referenceFields returns the variant's reference-kind fields in name order.
func referenceFields(v Variant) []string {
	var out []string
	for name, kind := range fieldTables[v] {
		if kind.IsReference() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Fields is the input shape for Add and Update.
type Fields map[string]any

// normalizeValue checks value against the variant's field table and returns
// the canonical representation stored in the catalog.
func normalizeValue(v Variant, field string, value any) (any, error) {
	kind, ok := FieldKindOf(v, field)
	if !ok {
		return nil, newError(ErrCodeInvalidField, "%s has no field %q", v, field)
	}
	bad := func() error {
		return newError(ErrCodeInvalidField, "%s.%s: unexpected value of type %T", v, field, value)
	}
	switch kind {
	case KindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case KindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case KindInt:
		switch n := value.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		}
	case KindName:
		if n, ok := value.(Name); ok {
			return n, nil
		}
	case KindObject:
		if o, ok := value.(Object); ok {
			return o, nil
		}
	case KindObjectList:
		switch l := value.(type) {
		case ObjectList:
			return append(ObjectList(nil), l...), nil
		case []Object:
			return append(ObjectList(nil), l...), nil
		}
	case KindType:
		switch t := value.(type) {
		case Object:
			return t, nil
		case Array:
			return t, nil
		case *Array:
			if t != nil {
				return *t, nil
			}
		}
	}
	return nil, bad()
}

// refIDs returns the ids referenced by a stored field value.
func refIDs(value any) []uuid.UUID {
	switch v := value.(type) {
	case Object:
		return []uuid.UUID{v.ID}
	case ObjectList:
		return v.IDs()
	case Array:
		return refIDs(v.Element)
	}
	return nil
}
