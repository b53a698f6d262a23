package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qlbind/internal/compiler"
	"github.com/roach88/qlbind/internal/schema"
)

// FunctionsOptions holds flags for the functions command.
type FunctionsOptions struct {
	*RootOptions
	Operators     bool
	ModuleAliases map[string]string
}

// OverloadGroup lists the overloads a short name resolves to.
type OverloadGroup struct {
	Name      string            `json:"name"`
	Overloads []CallableSummary `json:"overloads"`
}

// NewFunctionsCommand creates the functions command.
func NewFunctionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FunctionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "functions <schema-dir> <name>",
		Short: "List the overloads of a function or operator",
		Long: `List every overload a function or operator name resolves to, in the
order the binder considers them.

An unqualified name is looked up in the default module and then in std.

Examples:
  qlbind functions ./schema len
  qlbind functions ./schema m::clamp --module-alias m=math
  qlbind functions ./schema + --operators`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunctions(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Operators, "operators", false, "look up operators instead of functions")
	cmd.Flags().StringToStringVar(&opts.ModuleAliases, "module-alias", nil, "module alias as alias=module (repeatable)")

	return cmd
}

func runFunctions(opts *FunctionsOptions, schemaDir, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	res, err := LoadSchema(schemaDir)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	c := res.Catalog

	lookup := c.GetFunctions
	if opts.Operators {
		lookup = c.GetOperators
	}
	objs, err := lookup(name, schema.WithModuleAliases(opts.ModuleAliases))
	if err != nil {
		_ = formatter.Error(ErrCodeFunctionNotFound, err.Error(), map[string]string{
			"code": string(compiler.ErrCodeFunctionNotFound),
		})
		return WrapExitError(ExitFailure, "lookup failed", err)
	}

	group := OverloadGroup{Name: name, Overloads: make([]CallableSummary, len(objs))}
	for i, obj := range objs {
		group.Overloads[i] = CallableSummary{
			Name:      c.NameOf(obj).String(),
			Variant:   obj.Variant.String(),
			Signature: c.Signature(obj),
		}
	}

	if opts.Format == "json" {
		return formatter.Success(group)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s: %d overload(s)\n", name, len(group.Overloads))
	for i, o := range group.Overloads {
		fmt.Fprintf(w, "  [%d] %s\n", i, o.Signature)
		if opts.Verbose {
			fmt.Fprintf(w, "      %s\n", o.Name)
		}
	}
	return nil
}
