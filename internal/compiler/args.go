package compiler

import (
	"github.com/roach88/qlbind/internal/ir"
	"github.com/roach88/qlbind/internal/qlast"
	"github.com/roach88/qlbind/internal/schema"
)

// Arg is a compiled call argument with its inferred type.
type Arg struct {
	Type schema.Type
	Expr *ir.Set
}

// NamedArg is a compiled named argument.
type NamedArg struct {
	Name string
	Arg
}

// CollectedArgs are the compiled arguments of one call site.
// Named arguments keep their call-site order.
type CollectedArgs struct {
	Positional []Arg
	Named      []NamedArg
}

// Lookup returns the named argument called name.
func (a CollectedArgs) Lookup(name string) (Arg, bool) {
	for _, na := range a.Named {
		if na.Name == name {
			return na.Arg, true
		}
	}
	return Arg{}, false
}

// Empty reports whether the call passed no arguments at all.
func (a CollectedArgs) Empty() bool {
	return len(a.Positional) == 0 && len(a.Named) == 0
}

// compileCallArg compiles one argument under a fresh fence. The fence is
// kept on the set because the argument may bind to a SET OF parameter,
// which is not known until a candidate is chosen.
func compileCallArg(ctx *Context, arg qlast.FuncArg) (*ir.Set, error) {
	fctx := ctx.newScope()
	set, err := fctx.Exprs.Compile(fctx, applyArgClauses(arg))
	if err != nil {
		return nil, err
	}
	fctx.Scope.AttachPath(set.PathID)
	set.Scope = fctx.Scope
	return set, nil
}

// collectArgs compiles and types every argument of call.
func collectArgs(ctx *Context, call *qlast.FunctionCall, funcname string) (CollectedArgs, error) {
	var out CollectedArgs

	for i, arg := range call.Args {
		set, err := compileCallArg(ctx, arg)
		if err != nil {
			return CollectedArgs{}, err
		}
		t := ctx.Types.InferType(ctx.Catalog, set)
		if t == nil {
			return CollectedArgs{}, newError(ErrCodeArgumentTypeUnresolved, arg.Pos,
				"could not resolve the type of positional argument #%d of function %s", i, funcname)
		}
		out.Positional = append(out.Positional, Arg{Type: t, Expr: set})
	}

	for _, na := range call.Kwargs {
		set, err := compileCallArg(ctx, na.Arg)
		if err != nil {
			return CollectedArgs{}, err
		}
		t := ctx.Types.InferType(ctx.Catalog, set)
		if t == nil {
			return CollectedArgs{}, newError(ErrCodeArgumentTypeUnresolved, na.Arg.Pos,
				"could not resolve the type of named argument $%s of function %s", na.Name, funcname)
		}
		out.Named = append(out.Named, NamedArg{Name: na.Name, Arg: Arg{Type: t, Expr: set}})
	}

	return out, nil
}
