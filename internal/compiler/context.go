package compiler

import (
	"fmt"
	"log/slog"

	"github.com/roach88/qlbind/internal/ir"
	"github.com/roach88/qlbind/internal/qlast"
	"github.com/roach88/qlbind/internal/qlparser"
	"github.com/roach88/qlbind/internal/schema"
)

// ExprCompiler compiles a syntax tree into IR under a context.
type ExprCompiler interface {
	Compile(ctx *Context, expr qlast.Expr) (*ir.Set, error)
}

// TypeInferer infers the type of a compiled expression.
// It returns nil when the type cannot be determined.
type TypeInferer interface {
	InferType(c *schema.Catalog, s *ir.Set) schema.Type
}

// FragmentParser parses stored source fragments such as parameter defaults.
type FragmentParser interface {
	ParseFragment(src string) (qlast.Expr, error)
}

// FragmentParserFunc adapts a function to FragmentParser.
type FragmentParserFunc func(src string) (qlast.Expr, error)

// ParseFragment calls f(src).
func (f FragmentParserFunc) ParseFragment(src string) (qlast.Expr, error) {
	return f(src)
}

// EnclosingFunction describes the function whose body is being compiled.
type EnclosingFunction struct {
	Object schema.Object
	Params schema.FuncParams
}

// Context is the compilation state for one expression.
//
// Sub-contexts created while compiling share the catalog, collaborators and
// path counter with their parent but carry their own scope node.
type Context struct {
	Catalog    *schema.Catalog
	Logger     *slog.Logger
	Aliases    map[string]string
	Observer   Observer
	Scope      *ir.ScopeNode
	Func       *EnclosingFunction
	InFuncCall bool

	Exprs  ExprCompiler
	Types  TypeInferer
	Parser FragmentParser

	funcObj *schema.Object
	pathSeq *int
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ctx *Context) {
		ctx.Logger = logger
	}
}

// WithModuleAliases sets the module aliases used for name resolution.
// The "" key names the default module.
func WithModuleAliases(aliases map[string]string) Option {
	return func(ctx *Context) {
		ctx.Aliases = aliases
	}
}

// WithObserver registers an observer notified after every call resolution.
func WithObserver(obs Observer) Option {
	return func(ctx *Context) {
		ctx.Observer = obs
	}
}

// WithEnclosingFunction compiles as if inside the body of fn: its
// parameters become referable by name and are not callable.
func WithEnclosingFunction(fn schema.Object) Option {
	return func(ctx *Context) {
		ctx.funcObj = &fn
	}
}

// WithExprCompiler replaces the expression compiler.
func WithExprCompiler(ec ExprCompiler) Option {
	return func(ctx *Context) {
		ctx.Exprs = ec
	}
}

// WithTypeInferer replaces the type inferer.
func WithTypeInferer(ti TypeInferer) Option {
	return func(ctx *Context) {
		ctx.Types = ti
	}
}

// WithFragmentParser replaces the fragment parser.
func WithFragmentParser(fp FragmentParser) Option {
	return func(ctx *Context) {
		ctx.Parser = fp
	}
}

// New creates a root context over a catalog value.
func New(c *schema.Catalog, opts ...Option) (*Context, error) {
	ctx := &Context{
		Catalog: c,
		Logger:  slog.Default(),
		Scope:   ir.NewScopeTree(),
		Exprs:   exprCompiler{},
		Types:   typeInferer{},
		Parser:  FragmentParserFunc(qlparser.ParseFragment),
		pathSeq: new(int),
	}
	for _, opt := range opts {
		opt(ctx)
	}

	if ctx.funcObj != nil {
		params, err := c.FuncParams(*ctx.funcObj)
		if err != nil {
			return nil, fmt.Errorf("enclosing function: %w", err)
		}
		ctx.Func = &EnclosingFunction{Object: *ctx.funcObj, Params: params}
	}
	return ctx, nil
}

// sub returns a child context sharing everything but the scope pointer.
func (ctx *Context) sub() *Context {
	child := *ctx
	return &child
}

// newScope returns a child context compiling under a new fenced scope node.
func (ctx *Context) newScope() *Context {
	child := ctx.sub()
	child.Scope = ctx.Scope.AttachFence()
	return child
}

// inPolymorphicFunc reports whether the enclosing function has polymorphic parameters.
func (ctx *Context) inPolymorphicFunc() bool {
	return ctx.Func != nil && ctx.Func.Params.IsPolymorphic(ctx.Catalog)
}

// CompileSource parses src and compiles it.
func (ctx *Context) CompileSource(src string) (*ir.Set, error) {
	expr, err := ctx.Parser.ParseFragment(src)
	if err != nil {
		return nil, syntaxError(err)
	}
	return ctx.Exprs.Compile(ctx, expr)
}

// syntaxError converts parser errors into CompileErrors, keeping the position.
func syntaxError(err error) error {
	if pe, ok := err.(*qlparser.ParseError); ok {
		return &CompileError{Code: ErrCodeSyntax, Message: pe.Message, Pos: pe.Pos}
	}
	return &CompileError{Code: ErrCodeSyntax, Message: err.Error()}
}

// newPathID allocates a path id unique within the root context.
func (ctx *Context) newPathID(kind string) ir.PathID {
	*ctx.pathSeq++
	return ir.PathID(fmt.Sprintf("%s~%d", kind, *ctx.pathSeq))
}

// ensureSet wraps e in a Set with a fresh path id.
func (ctx *Context) ensureSet(e ir.Expr, kind string) *ir.Set {
	return &ir.Set{Expr: e, PathID: ctx.newPathID(kind)}
}

// lookupOpts returns the catalog lookup options for this context.
func (ctx *Context) lookupOpts(opts ...schema.LookupOption) []schema.LookupOption {
	return append([]schema.LookupOption{schema.WithModuleAliases(ctx.Aliases)}, opts...)
}
