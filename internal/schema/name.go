package schema

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// StdModule is the module consulted by the implicit-builtins fallback
// when an unqualified name is not found anywhere else.
const StdModule = "std"

const (
	moduleSep  = "::"
	specialSep = "@@"
	qualSep    = "@"
)

// Name is a possibly module-qualified schema name.
// Modules themselves have an empty Module.
type Name struct {
	Module string
	Name   string
}

// ParseName splits "module::name" into its parts.
// Identifiers are NFC-normalised so that lookups are canonical regardless of
// how the source text composed its characters.
func ParseName(s string) Name {
	s = norm.NFC.String(strings.TrimSpace(s))
	if module, name, ok := strings.Cut(s, moduleSep); ok {
		return Name{Module: module, Name: name}
	}
	return Name{Name: s}
}

// String returns "module::name", or the bare name when unqualified.
func (n Name) String() string {
	if n.Module == "" {
		return n.Name
	}
	return n.Module + moduleSep + n.Name
}

// IsZero reports whether the name is empty.
func (n Name) IsZero() bool {
	return n.Module == "" && n.Name == ""
}

// Shortname strips the specialisation suffix from a full name:
// "std::len@@std|str" becomes "std::len".
func Shortname(n Name) Name {
	if short, _, ok := strings.Cut(n.Name, specialSep); ok {
		return Name{Module: n.Module, Name: short}
	}
	return n
}

// SpecializedName builds the unique full name of one member of an overload
// group. Qualifiers are usually parameter type names; "::" inside them is
// mangled to "|" so the result still parses as a single module-qualified name.
func SpecializedName(short Name, quals ...string) Name {
	mangled := make([]string, len(quals))
	for i, q := range quals {
		mangled[i] = strings.ReplaceAll(q, moduleSep, "|")
	}
	return Name{
		Module: short.Module,
		Name:   short.Name + specialSep + strings.Join(mangled, qualSep),
	}
}
