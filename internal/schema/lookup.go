package schema

import (
	"slices"

	"github.com/google/uuid"
)

type lookupConfig struct {
	aliases    map[string]string
	variants   []Variant
	def        Object
	hasDefault bool
}

// LookupOption configures Get and GetFunctions.
type LookupOption func(*lookupConfig)

// WithModuleAliases maps module names as written to the modules they stand
// for. The "" key names the default module for unqualified names.
func WithModuleAliases(aliases map[string]string) LookupOption {
	return func(cfg *lookupConfig) {
		cfg.aliases = aliases
	}
}

// WithVariants restricts Get to objects of the given variants.
func WithVariants(vs ...Variant) LookupOption {
	return func(cfg *lookupConfig) {
		cfg.variants = vs
	}
}

// WithDefault makes Get return obj instead of ITEM_NOT_FOUND.
// Overload group lookups ignore it.
func WithDefault(obj Object) LookupOption {
	return func(cfg *lookupConfig) {
		cfg.def = obj
		cfg.hasDefault = true
	}
}

func newLookupConfig(opts []LookupOption) lookupConfig {
	var cfg lookupConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// resolveName runs the shared name-resolution order:
//  1. the module, after alias substitution, qualified with the short name
//  2. the bare name when no module applies
//  3. std::name when the name was written unqualified
func resolveName[T any](name string, aliases map[string]string, getter func(string) (T, bool)) (T, bool) {
	n := ParseName(name)
	implicitBuiltins := n.Module == ""

	module := n.Module
	if fq, ok := aliases[module]; ok && fq != "" {
		module = fq
	}

	if module != "" {
		if r, ok := getter(Name{Module: module, Name: n.Name}.String()); ok {
			return r, true
		}
	} else if r, ok := getter(n.Name); ok {
		return r, true
	}

	if implicitBuiltins {
		if r, ok := getter(Name{Module: StdModule, Name: n.Name}.String()); ok {
			return r, true
		}
	}

	var zero T
	return zero, false
}

// Get resolves a possibly-qualified name to a single object.
func (c *Catalog) Get(name string, opts ...LookupOption) (Object, error) {
	cfg := newLookupConfig(opts)
	obj, ok := resolveName(name, cfg.aliases, func(fullname string) (Object, bool) {
		return c.getByName(fullname, cfg.variants)
	})
	if ok {
		return obj, nil
	}
	if cfg.hasDefault {
		return cfg.def, nil
	}
	return Object{}, newError(ErrCodeItemNotFound, "reference to a non-existent schema item: %s", name)
}

func (c *Catalog) getByName(fullname string, variants []Variant) (Object, bool) {
	id, ok := c.nameToID.Get(fullname)
	if !ok {
		return Object{}, false
	}
	v, ok := c.idToType.Get(id)
	if !ok {
		return Object{}, false
	}
	if len(variants) > 0 && !slices.Contains(variants, v) {
		return Object{}, false
	}
	return Object{ID: id, Variant: v}, true
}

// GetFunctions resolves a short function name to its overload group.
func (c *Catalog) GetFunctions(name string, opts ...LookupOption) ([]Object, error) {
	return c.getCallables(VariantFunction, "function", name, opts)
}

// GetOperators resolves a short operator name to its overload group.
func (c *Catalog) GetOperators(name string, opts ...LookupOption) ([]Object, error) {
	return c.getCallables(VariantOperator, "operator", name, opts)
}

func (c *Catalog) getCallables(v Variant, what, name string, opts []LookupOption) ([]Object, error) {
	cfg := newLookupConfig(opts)
	group, ok := resolveName(name, cfg.aliases, func(fullname string) ([]Object, bool) {
		g := c.overloadGroup(v, fullname)
		return g, len(g) > 0
	})
	if !ok {
		return nil, newError(ErrCodeItemNotFound, "reference to a non-existent %s: %s", what, name)
	}
	return group, nil
}

// overloadGroup returns the members of (variant, shortname) ordered by id.
// The answer is memoised on this catalog value.
func (c *Catalog) overloadGroup(v Variant, shortname string) []Object {
	key := groupKey{variant: v, name: shortname}
	return memoize(c.memo, c.memo.groups, key, func() []Object {
		ids, ok := c.shortnameToID.Get(key)
		if !ok {
			return nil
		}
		return c.objectsByID(ids.Sorted())
	})
}

// IDByName returns the id registered for an exact full name.
func (c *Catalog) IDByName(fullname string) (uuid.UUID, bool) {
	return c.nameToID.Get(fullname)
}
