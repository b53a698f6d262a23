package sdl

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/qlbind/internal/schema"
)

// LoadResult is a catalog built from declarations.
type LoadResult struct {
	Catalog   *schema.Catalog
	FileCount int // Number of CUE files found
}

// LoadDir loads every .cue file in dir as one instance and builds a
// catalog from its modules.
func LoadDir(dir string, opts ...BuilderOption) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(cueFiles) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, cueError(inst.Err)
	}

	value := ctx.BuildInstance(inst)
	c, err := Compile(value, opts...)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Catalog: c, FileCount: len(cueFiles)}, nil
}

// LoadFiles compiles each .cue file and unifies them into one value, so
// files may come from different directories.
func LoadFiles(files []string, opts ...BuilderOption) (*LoadResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files given")
	}

	ctx := cuecontext.New()
	var value cue.Value
	for i, f := range files {
		if filepath.Ext(f) != ".cue" {
			return nil, fmt.Errorf("not a CUE file: %s", f)
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("schema file: %w", err)
		}
		v := ctx.CompileBytes(data, cue.Filename(f))
		if err := v.Err(); err != nil {
			return nil, cueError(err)
		}
		if i == 0 {
			value = v
		} else {
			value = value.Unify(v)
		}
	}
	if err := value.Err(); err != nil {
		return nil, cueError(err)
	}

	c, err := Compile(value, opts...)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Catalog: c, FileCount: len(files)}, nil
}

// LoadString builds a catalog from declarations in src.
func LoadString(src string, opts ...BuilderOption) (*schema.Catalog, error) {
	ctx := cuecontext.New()
	return Compile(ctx.CompileString(src, cue.Filename("schema.cue")), opts...)
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

type moduleValue struct {
	name string
	v    cue.Value
}

// Compile builds a catalog from a CUE value of the form
//
//	modules: <module>: {
//	    pseudo:    <name>: {}
//	    scalars:   <name>: {bases?: [...string], abstract?: bool}
//	    objects:   <name>: {bases?: [...string], abstract?: bool}
//	    casts:     [...{from: string, to: string, implicit?: bool, assignment?: bool}]
//	    functions: <name>: [...#Function]
//	    operators: <name>: [...#Function & {kind: string}]
//	}
//
// Declarations are applied in passes: modules, types, bases, casts, then
// callables. Type references may therefore point anywhere in the value.
func Compile(v cue.Value, opts ...BuilderOption) (*schema.Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, cueError(err)
	}
	modsVal := v.LookupPath(cue.ParsePath("modules"))
	if !modsVal.Exists() {
		return nil, fieldErrorf("modules", v, "modules is required")
	}

	iter, err := modsVal.Fields()
	if err != nil {
		return nil, cueError(err)
	}
	var modules []moduleValue
	for iter.Next() {
		modules = append(modules, moduleValue{name: iter.Label(), v: iter.Value()})
	}

	b := NewBuilder(opts...)
	for _, m := range modules {
		if _, err := b.AddModule(m.name); err != nil {
			return nil, fieldError("modules."+m.name, m.v, err)
		}
	}

	passes := []func(*Builder, moduleValue) error{
		addTypes,
		setBases,
		addCasts,
		addFunctions,
		addOperators,
	}
	for _, pass := range passes {
		for _, m := range modules {
			if err := pass(b, m); err != nil {
				return nil, err
			}
		}
	}
	return b.Catalog(), nil
}

var typeSections = []struct {
	field   string
	variant schema.Variant
}{
	{"pseudo", schema.VariantPseudoType},
	{"scalars", schema.VariantScalarType},
	{"objects", schema.VariantObjectType},
}

func addTypes(b *Builder, m moduleValue) error {
	for _, sec := range typeSections {
		err := eachField(m.v, sec.field, func(name string, tv cue.Value) error {
			abstract, err := optionalBool(tv, "abstract")
			if err != nil {
				return err
			}
			if _, err := b.AddType(sec.variant, m.name+"::"+name, abstract); err != nil {
				return fieldError(fieldPath(m, sec.field, name), tv, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func setBases(b *Builder, m moduleValue) error {
	for _, sec := range typeSections[1:] {
		err := eachField(m.v, sec.field, func(name string, tv cue.Value) error {
			refs, err := optionalStrings(tv, "bases")
			if err != nil || len(refs) == 0 {
				return err
			}
			field := fieldPath(m, sec.field, name) + ".bases"
			self, err := b.Catalog().Get(m.name + "::" + name)
			if err != nil {
				return fieldError(field, tv, err)
			}
			bases := make([]schema.Object, 0, len(refs))
			for _, ref := range refs {
				t, err := b.ResolveType(m.name, ref)
				if err != nil {
					return fieldError(field, tv, err)
				}
				base, ok := t.(schema.Object)
				if !ok {
					return fieldErrorf(field, tv, "base %q is not a named type", ref)
				}
				bases = append(bases, base)
			}
			if err := b.SetBases(self, bases...); err != nil {
				return fieldError(field, tv, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func addCasts(b *Builder, m moduleValue) error {
	return eachElem(m.v, "casts", func(i int, cv cue.Value) error {
		field := fmt.Sprintf("modules.%s.casts[%d]", m.name, i)
		from, err := requiredString(cv, "from", field)
		if err != nil {
			return err
		}
		to, err := requiredString(cv, "to", field)
		if err != nil {
			return err
		}
		var decl CastDecl
		if decl.Implicit, err = optionalBool(cv, "implicit"); err != nil {
			return err
		}
		if decl.Assignment, err = optionalBool(cv, "assignment"); err != nil {
			return err
		}

		var ends [2]schema.Object
		for j, ref := range []string{from, to} {
			t, err := b.ResolveType(m.name, ref)
			if err != nil {
				return fieldError(field, cv, err)
			}
			obj, ok := t.(schema.Object)
			if !ok {
				return fieldErrorf(field, cv, "cast endpoint %q is not a named type", ref)
			}
			ends[j] = obj
		}
		if _, err := b.AddCast(ends[0], ends[1], decl); err != nil {
			return fieldError(field, cv, err)
		}
		return nil
	})
}

func addFunctions(b *Builder, m moduleValue) error {
	return eachField(m.v, "functions", func(name string, fv cue.Value) error {
		return eachOverload(fv, fieldPath(m, "functions", name), func(field string, ov cue.Value) error {
			decl, err := functionDecl(b, m.name, field, ov)
			if err != nil {
				return err
			}
			if _, err := b.AddFunction(m.name+"::"+name, decl); err != nil {
				return fieldError(field, ov, err)
			}
			return nil
		})
	})
}

func addOperators(b *Builder, m moduleValue) error {
	return eachField(m.v, "operators", func(name string, fv cue.Value) error {
		return eachOverload(fv, fieldPath(m, "operators", name), func(field string, ov cue.Value) error {
			kind, err := requiredString(ov, "kind", field)
			if err != nil {
				return err
			}
			decl, err := functionDecl(b, m.name, field, ov)
			if err != nil {
				return err
			}
			if _, err := b.AddOperator(m.name+"::"+name, kind, decl); err != nil {
				return fieldError(field, ov, err)
			}
			return nil
		})
	})
}

func eachOverload(v cue.Value, field string, fn func(field string, ov cue.Value) error) error {
	iter, err := v.List()
	if err != nil {
		return fieldErrorf(field, v, "must be a list of overloads")
	}
	for i := 0; iter.Next(); i++ {
		if err := fn(fmt.Sprintf("%s[%d]", field, i), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func functionDecl(b *Builder, module, field string, v cue.Value) (FunctionDecl, error) {
	var decl FunctionDecl

	returns, err := requiredString(v, "returns", field)
	if err != nil {
		return decl, err
	}
	if decl.Returns, err = b.ResolveType(module, returns); err != nil {
		return decl, fieldError(field+".returns", v, err)
	}

	typemod, err := optionalString(v, "return_typemod")
	if err != nil {
		return decl, err
	}
	if decl.ReturnTypemod, err = parseTypemod(typemod); err != nil {
		return decl, fieldError(field+".return_typemod", v, err)
	}

	lang, err := optionalString(v, "language")
	if err != nil {
		return decl, err
	}
	switch schema.Language(lang) {
	case "", schema.LanguageQL, schema.LanguageNative:
		decl.Language = schema.Language(lang)
	default:
		return decl, fieldErrorf(field+".language", v, "unknown language %q", lang)
	}

	if iv := v.LookupPath(cue.ParsePath("initial_value")); iv.Exists() {
		src, err := iv.String()
		if err != nil {
			return decl, valueError(iv, err)
		}
		decl.InitialValue = Default(src)
	}
	if decl.FromFunction, err = optionalString(v, "from_function"); err != nil {
		return decl, err
	}

	err = eachElem(v, "params", func(i int, pv cue.Value) error {
		pfield := fmt.Sprintf("%s.params[%d]", field, i)
		p, err := paramDecl(b, module, pfield, pv)
		if err != nil {
			return err
		}
		decl.Params = append(decl.Params, p)
		return nil
	})
	return decl, err
}

func paramDecl(b *Builder, module, field string, v cue.Value) (ParamDecl, error) {
	var p ParamDecl
	var err error

	if p.Name, err = requiredString(v, "name", field); err != nil {
		return p, err
	}
	ref, err := requiredString(v, "type", field)
	if err != nil {
		return p, err
	}
	if p.Type, err = b.ResolveType(module, ref); err != nil {
		return p, fieldError(field+".type", v, err)
	}

	kind, err := optionalString(v, "kind")
	if err != nil {
		return p, err
	}
	switch schema.ParameterKind(kind) {
	case "", schema.PositionalParam, schema.NamedOnlyParam, schema.VariadicParam:
		p.Kind = schema.ParameterKind(kind)
	default:
		return p, fieldErrorf(field+".kind", v, "unknown parameter kind %q", kind)
	}

	typemod, err := optionalString(v, "typemod")
	if err != nil {
		return p, err
	}
	if p.Typemod, err = parseTypemod(typemod); err != nil {
		return p, fieldError(field+".typemod", v, err)
	}

	if dv := v.LookupPath(cue.ParsePath("default")); dv.Exists() {
		src, err := dv.String()
		if err != nil {
			return p, valueError(dv, err)
		}
		p.Default = Default(src)
	}
	return p, nil
}

func parseTypemod(s string) (schema.TypeModifier, error) {
	switch schema.TypeModifier(s) {
	case "", schema.SingletonType, schema.OptionalType, schema.SetOfType:
		return schema.TypeModifier(s), nil
	}
	return "", fmt.Errorf("unknown type modifier %q", s)
}

func fieldPath(m moduleValue, section, name string) string {
	return fmt.Sprintf("modules.%s.%s.%s", m.name, section, name)
}

// eachField calls fn for every field of the optional struct v.<field>.
func eachField(v cue.Value, field string, fn func(label string, fv cue.Value) error) error {
	sv := v.LookupPath(cue.ParsePath(field))
	if !sv.Exists() {
		return nil
	}
	iter, err := sv.Fields()
	if err != nil {
		return cueError(err)
	}
	for iter.Next() {
		if err := fn(iter.Label(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

// eachElem calls fn for every element of the optional list v.<field>.
func eachElem(v cue.Value, field string, fn func(i int, ev cue.Value) error) error {
	lv := v.LookupPath(cue.ParsePath(field))
	if !lv.Exists() {
		return nil
	}
	iter, err := lv.List()
	if err != nil {
		return cueError(err)
	}
	for i := 0; iter.Next(); i++ {
		if err := fn(i, iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func requiredString(v cue.Value, field, path string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", fieldErrorf(path+"."+field, v, "%s is required", field)
	}
	s, err := fv.String()
	if err != nil {
		return "", valueError(fv, err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", valueError(fv, err)
	}
	return s, nil
}

func optionalBool(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, valueError(fv, err)
	}
	return b, nil
}

func optionalStrings(v cue.Value, field string) ([]string, error) {
	var out []string
	err := eachElem(v, field, func(_ int, ev cue.Value) error {
		s, err := ev.String()
		if err != nil {
			return valueError(ev, err)
		}
		out = append(out, s)
		return nil
	})
	return out, err
}
