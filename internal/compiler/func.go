package compiler

import (
	"fmt"

	"github.com/roach88/qlbind/internal/ir"
	"github.com/roach88/qlbind/internal/qlast"
	"github.com/roach88/qlbind/internal/schema"
)

// BoundCall is the outcome of matching a call against one candidate.
type BoundCall struct {
	Func schema.Object

	// Args is the bound argument list in backend order: named-only
	// parameters, then positional, then variadic. Functions written in the
	// query language get the defaults mask as a leading bytes argument.
	Args []*ir.Set

	ReturnType        schema.Type
	UsedImplicitCasts bool
	HasEmptyVariadic  bool

	// DefaultsMask has bit i set, little-endian, when bound argument i was
	// populated from its parameter's default.
	DefaultsMask []byte
}

// NoMatch is the BoundCall of a candidate that rejected the arguments.
var NoMatch = BoundCall{}

// Matched reports whether b binds a function.
func (b BoundCall) Matched() bool {
	return !b.Func.IsZero()
}

// binder carries the per-candidate matching state.
type binder struct {
	ctx          *Context
	c            *schema.Catalog
	inPolyFunc   bool
	usedCast     bool
	resolvedPoly schema.Type
}

// checkType reports whether an argument of type arg may be passed where
// param is expected, noting whether an implicit cast is needed.
func (b *binder) checkType(arg, param schema.Type) bool {
	if b.inPolyFunc && b.c.IsPolymorphic(arg) && b.c.ResolvePolymorphic(arg, param) != nil {
		return true
	}
	if b.c.IsSubtype(arg, param) {
		return true
	}
	if b.c.ImplicitlyCastable(arg, param) {
		b.usedCast = true
		return true
	}
	return false
}

// checkAny binds a polymorphic parameter to the argument's concrete type.
// Every polymorphic parameter of one call must resolve to the same type.
func (b *binder) checkAny(arg, param schema.Type) bool {
	if b.inPolyFunc && b.c.IsPolymorphic(arg) && schema.TypesEqual(param, arg) {
		return true
	}
	if !b.c.IsPolymorphic(param) {
		return true
	}
	resolved := b.c.ResolvePolymorphic(param, arg)
	if resolved == nil {
		return false
	}
	if b.resolvedPoly == nil {
		b.resolvedPoly = resolved
		return true
	}
	return schema.TypesEqual(b.resolvedPoly, resolved)
}

func (b *binder) check(arg, param schema.Type) bool {
	return b.checkType(arg, param) && b.checkAny(arg, param)
}

type boundArg struct {
	param schema.Param
	set   *ir.Set
}

// TryBindFuncArgs matches collected arguments against one candidate.
//
// It returns NoMatch when the candidate does not accept the arguments. An
// error means the candidate matched structurally but could not be bound, or
// that the catalog or resolver is inconsistent.
//
// Binding collapses the scope fences of arguments passed to non SET OF
// parameters, so arguments are shared state across candidates of one call.
func TryBindFuncArgs(ctx *Context, args CollectedArgs, funcname string, fn schema.Object) (BoundCall, error) {
	c := ctx.Catalog
	b := &binder{ctx: ctx, c: c, inPolyFunc: ctx.inPolymorphicFunc()}

	declared, err := c.FuncParams(fn)
	if err != nil {
		return NoMatch, err
	}
	isQL := c.FuncLanguage(fn) == schema.LanguageQL
	noArgs := args.Empty()

	if len(declared) == 0 {
		if !noArgs {
			return NoMatch, nil
		}
		rt, err := c.ReturnType(fn)
		if err != nil {
			return NoMatch, err
		}
		call := BoundCall{Func: fn, Args: []*ir.Set{}, ReturnType: rt, DefaultsMask: []byte{0x00}}
		if isQL {
			prefix, err := maskArg(ctx, call.DefaultsMask)
			if err != nil {
				return NoMatch, err
			}
			call.Args = []*ir.Set{prefix}
		}
		return call, nil
	}

	pg := declared.PgParams()
	if noArgs && pg.HasParamWithoutDefault {
		return NoMatch, nil
	}

	params := pg.Params
	nparams := len(params)
	var bound []boundArg
	populateDefaults := false
	hasEmptyVariadic := false
	pi := 0

	// Named-only parameters bind first.
	matchedKwargs := 0
	for ; pi < nparams && params[pi].Kind == schema.NamedOnlyParam; pi++ {
		param := params[pi]
		arg, ok := args.Lookup(param.Name)
		if !ok {
			if !param.HasDefault {
				return NoMatch, nil
			}
			populateDefaults = true
			bound = append(bound, boundArg{param: param})
			continue
		}
		matchedKwargs++
		if !b.check(arg.Type, param.Type) {
			return NoMatch, nil
		}
		bound = append(bound, boundArg{param: param, set: arg.Expr})
	}
	if matchedKwargs != len(args.Named) {
		return NoMatch, nil
	}

	// Positional arguments follow; a variadic parameter takes the rest.
positional:
	for ai := 0; ai < len(args.Positional); ai++ {
		arg := args.Positional[ai]
		if pi >= nparams {
			return NoMatch, nil
		}
		param := params[pi]
		pi++

		switch param.Kind {
		case schema.NamedOnlyParam:
			return NoMatch, &InvariantError{Message: "unprocessed NAMED ONLY parameter"}
		case schema.VariadicParam:
			elem := variadicElement(param.Type)
			for _, rest := range args.Positional[ai:] {
				if !b.check(rest.Type, elem) {
					return NoMatch, nil
				}
				bound = append(bound, boundArg{param: param, set: rest.Expr})
			}
			break positional
		}

		if !b.check(arg.Type, param.Type) {
			return NoMatch, nil
		}
		bound = append(bound, boundArg{param: param, set: arg.Expr})
	}

	// Parameters left without arguments.
	for ; pi < nparams; pi++ {
		param := params[pi]
		switch param.Kind {
		case schema.PositionalParam:
			if !param.HasDefault {
				return NoMatch, nil
			}
			populateDefaults = true
			bound = append(bound, boundArg{param: param})
		case schema.VariadicParam:
			hasEmptyVariadic = true
		case schema.NamedOnlyParam:
			return NoMatch, &InvariantError{Message: "unprocessed NAMED ONLY parameter"}
		}
	}

	mask := make([]byte, nparams/8+1)
	defaulted := make(map[string]bool)
	if populateDefaults {
		for i := range bound {
			if bound[i].set != nil {
				continue
			}
			param := bound[i].param
			defaulted[param.Name] = true
			mask[i/8] |= 1 << (i % 8)

			set, err := b.defaultArg(param, isQL)
			if err != nil {
				return NoMatch, err
			}
			bound[i].set = set
		}
	}

	out := make([]*ir.Set, 0, len(bound)+1)
	if isQL {
		prefix, err := maskArg(ctx, mask)
		if err != nil {
			return NoMatch, err
		}
		out = append(out, prefix)
	}
	for _, ba := range bound {
		if ba.param.Typemod != schema.SetOfType {
			if ba.set.Scope != nil {
				ba.set.Scope.Collapse()
				ba.set.Scope = nil
			}
			if ba.param.Typemod == schema.OptionalType || defaulted[ba.param.Name] {
				ctx.Scope.AttachPath(ba.set.PathID)
				ctx.Scope.MarkOptional(ba.set.PathID)
			}
		}
		out = append(out, ba.set)
	}

	rt, err := c.ReturnType(fn)
	if err != nil {
		return NoMatch, err
	}
	if c.IsPolymorphic(rt) {
		if b.resolvedPoly == nil {
			return NoMatch, nil
		}
		rt = c.ToNonPolymorphic(rt, b.resolvedPoly)
	}

	return BoundCall{
		Func:              fn,
		Args:              out,
		ReturnType:        rt,
		UsedImplicitCasts: b.usedCast,
		HasEmptyVariadic:  hasEmptyVariadic,
		DefaultsMask:      mask,
	}, nil
}

// defaultArg builds the argument for a parameter populated from its default.
// Query-language functions receive a typed empty set and fill in the
// default themselves; native functions receive the compiled default.
func (b *binder) defaultArg(param schema.Param, isQL bool) (*ir.Set, error) {
	var compiled *ir.Set
	empty := isQL
	if !isQL {
		var err error
		compiled, err = b.compileDefault(param)
		if err != nil {
			return nil, err
		}
		_, empty = compiled.Expr.(ir.EmptySet)
	}

	defaultType := param.Type
	if empty && isAnyType(b.c, param.Type) {
		if b.resolvedPoly == nil {
			return nil, newError(ErrCodePolymorphicTypeUnresolved, qlast.Pos{},
				"could not resolve %s type for the $%s parameter", schema.AnyTypeName, param.Name)
		}
		defaultType = b.resolvedPoly
	}

	if isQL {
		return b.ctx.ensureSet(ir.EmptySet{Type: defaultType, Alias: param.Name}, "default"), nil
	}
	if es, ok := compiled.Expr.(ir.EmptySet); ok && es.Type == nil {
		es.Type = defaultType
		compiled.Expr = es
	}
	return compiled, nil
}

// compileDefault compiles a parameter's stored default expression. Defaults
// see the catalog but none of the caller's parameters.
func (b *binder) compileDefault(param schema.Param) (*ir.Set, error) {
	expr, err := b.ctx.Parser.ParseFragment(param.Default)
	if err != nil {
		return nil, fmt.Errorf("default of parameter $%s: %w", param.Name, syntaxError(err))
	}
	dctx := b.ctx.sub()
	dctx.Func = nil
	set, err := dctx.Exprs.Compile(dctx, expr)
	if err != nil {
		return nil, fmt.Errorf("default of parameter $%s: %w", param.Name, err)
	}
	return set, nil
}

// maskArg builds the defaults-mask prefix argument.
func maskArg(ctx *Context, mask []byte) (*ir.Set, error) {
	bytesType, err := stdType(ctx, qlast.Pos{}, bytesTypeName)
	if err != nil {
		return nil, err
	}
	return ctx.ensureSet(ir.BytesConstant{Value: mask, Type: bytesType}, "mask"), nil
}

func variadicElement(t schema.Type) schema.Type {
	if arr, ok := t.(schema.Array); ok {
		return arr.Element
	}
	return t
}

func isAnyType(c *schema.Catalog, t schema.Type) bool {
	o, ok := t.(schema.Object)
	return ok && c.NameOf(o).String() == schema.AnyTypeName
}

// CompileFunctionCall resolves a call site against its overload group and
// compiles it into a FunctionCall set.
//
// Candidates are tried in catalog order. The first match wins unless it
// needed implicit casts and a later one does not. A call without arguments
// that matches more than one candidate is ambiguous.
func CompileFunctionCall(ctx *Context, expr *qlast.FunctionCall) (_ *ir.Set, err error) {
	c := ctx.Catalog
	funcname := expr.QualifiedName()
	rec := &ResolutionRecord{
		Call:              qlast.String(expr),
		Function:          funcname,
		CatalogGeneration: c.Generation(),
	}
	defer func() { ctx.notify(rec, err) }()

	if expr.Module == "" && ctx.Func != nil {
		if _, ok := ctx.Func.Params.ByName(expr.Name); ok {
			return nil, newError(ErrCodeParameterNotCallable, expr.Pos, "parameter `%s` is not callable", expr.Name)
		}
	}

	funcs, err := c.GetFunctions(funcname, ctx.lookupOpts()...)
	if err != nil {
		if schema.IsNotFound(err) {
			return nil, newError(ErrCodeFunctionNotFound, expr.Pos, "could not resolve function name %s", funcname)
		}
		return nil, err
	}

	fctx := ctx.sub()
	fctx.InFuncCall = true
	args, err := collectArgs(fctx, expr, funcname)
	if err != nil {
		return nil, err
	}

	best := NoMatch
	for _, fn := range funcs {
		call, err := TryBindFuncArgs(ctx, args, funcname, fn)
		if err != nil {
			return nil, err
		}
		rec.Candidates = append(rec.Candidates, CandidateOutcome{
			Function:          c.NameOf(fn).String(),
			Signature:         c.Signature(fn),
			Matched:           call.Matched(),
			UsedImplicitCasts: call.UsedImplicitCasts,
		})
		if !call.Matched() {
			ctx.Logger.Debug("candidate rejected", "call", funcname, "candidate", c.Signature(fn))
			continue
		}

		if !best.Matched() {
			best = call
			continue
		}
		if best.UsedImplicitCasts && !call.UsedImplicitCasts {
			best = call
		}
		if args.Empty() {
			ctx.Logger.Warn("ambiguous call", "call", funcname, "candidates", len(funcs))
			return nil, newError(ErrCodeAmbiguousCall, expr.Pos, "function %s is not unique", funcname)
		}
	}

	if !best.Matched() {
		ctx.Logger.Warn("no matching variant", "call", funcname, "candidates", len(funcs))
		return nil, newError(ErrCodeNoMatchingVariant, expr.Pos, "could not find a function variant %s", funcname)
	}

	fromFunction, _ := c.StringField(best.Func, schema.FieldFromFunction)
	node := ir.FunctionCall{
		Func:              best.Func,
		Name:              c.ShortnameOf(best.Func),
		Args:              best.Args,
		ReturnType:        best.ReturnType,
		ReturnTypemod:     c.ReturnTypemod(best.Func),
		Language:          c.FuncLanguage(best.Func),
		FromFunction:      fromFunction,
		HasEmptyVariadic:  best.HasEmptyVariadic,
		UsedImplicitCasts: best.UsedImplicitCasts,
		DefaultsMask:      best.DefaultsMask,
	}

	if src, ok := c.InitialValue(best.Func); ok {
		parsed, err := fctx.Parser.ParseFragment(src)
		if err != nil {
			return nil, fmt.Errorf("initial value of %s: %w", c.Signature(best.Func), syntaxError(err))
		}
		cast := &qlast.TypeCast{Pos: expr.Pos, Type: typeToQL(c, best.ReturnType), Expr: parsed}
		if node.InitialValue, err = fctx.Exprs.Compile(fctx, cast); err != nil {
			return nil, fmt.Errorf("initial value of %s: %w", c.Signature(best.Func), err)
		}
	}

	ctx.Logger.Debug("call resolved",
		"call", funcname,
		"function", c.Signature(best.Func),
		"return_type", c.TypeName(best.ReturnType),
		"implicit_casts", best.UsedImplicitCasts,
	)

	set := ctx.ensureSet(node, "call")
	rec.setOutcome(c, set, node)
	return set, nil
}
