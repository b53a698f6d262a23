package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/qlbind/internal/ir"
	"github.com/roach88/qlbind/internal/schema"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // manifest file path
}

// CatalogSummary describes a compiled catalog.
type CatalogSummary struct {
	Generation int64             `json:"generation"`
	Files      int               `json:"files"`
	Modules    []string          `json:"modules"`
	Counts     map[string]int    `json:"counts"`
	Callables  []CallableSummary `json:"callables"`
}

// CallableSummary is one function or operator overload.
type CallableSummary struct {
	Name      string `json:"name"`
	Variant   string `json:"variant"`
	Signature string `json:"signature"`
}

// summaryVariants are reported in this order.
var summaryVariants = []schema.Variant{
	schema.VariantModule,
	schema.VariantScalarType,
	schema.VariantObjectType,
	schema.VariantPseudoType,
	schema.VariantCast,
	schema.VariantFunction,
	schema.VariantOperator,
	schema.VariantParameter,
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema-dir>",
		Short: "Build a catalog from CUE declarations",
		Long: `Build a schema catalog from the CUE declarations under a directory.

Reports the number of objects per kind and every callable overload.
With --output, writes a canonical JSON manifest of the catalog.

Examples:
  qlbind compile ./schema
  qlbind compile ./schema -o catalog.json
  qlbind compile ./schema --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write a canonical manifest to this path")

	return cmd
}

func runCompile(opts *CompileOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	res, err := LoadSchema(schemaDir)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d CUE file(s) from %s", res.FileCount, schemaDir)

	summary := summarizeCatalog(res.Catalog, res.FileCount)

	if opts.Output != "" {
		if err := writeManifest(summary, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing manifest: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing manifest", err)
		}
		formatter.VerboseLog("Wrote manifest to %s", opts.Output)
	}

	if opts.Format == "json" {
		return formatter.Success(summary)
	}
	outputCompileText(formatter, summary, opts.Output)
	return nil
}

// summarizeCatalog counts objects per variant and lists callables by name.
func summarizeCatalog(c *schema.Catalog, files int) CatalogSummary {
	summary := CatalogSummary{
		Generation: c.Generation(),
		Files:      files,
		Modules:    c.Modules(),
		Counts:     make(map[string]int, len(summaryVariants)),
		Callables:  []CallableSummary{},
	}
	for _, v := range summaryVariants {
		summary.Counts[v.String()] = c.Objects(schema.OfVariant(v)).Count()
	}
	for obj := range c.Objects(schema.OfVariant(schema.VariantFunction, schema.VariantOperator)).All() {
		summary.Callables = append(summary.Callables, CallableSummary{
			Name:      c.NameOf(obj).String(),
			Variant:   obj.Variant.String(),
			Signature: c.Signature(obj),
		})
	}
	sort.Slice(summary.Callables, func(i, j int) bool {
		return summary.Callables[i].Name < summary.Callables[j].Name
	})
	return summary
}

func outputCompileText(formatter *OutputFormatter, s CatalogSummary, outputFile string) {
	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d module(s) from %d file(s)\n\n", len(s.Modules), s.Files)

	fmt.Fprintln(w, "Objects:")
	for _, v := range summaryVariants {
		fmt.Fprintf(w, "  %-11s %d\n", v.String()+":", s.Counts[v.String()])
	}

	if len(s.Callables) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Callables:")
		for _, cs := range s.Callables {
			fmt.Fprintf(w, "  %s\n", cs.Signature)
		}
	}

	if outputFile != "" {
		fmt.Fprintf(w, "\nWrote manifest to %s\n", outputFile)
	}
}

// writeManifest writes the summary as canonical JSON. The generation is
// left out so rebuilding identical declarations yields identical bytes.
func writeManifest(s CatalogSummary, filename string) error {
	counts := make(ir.IRObject, len(s.Counts))
	for k, n := range s.Counts {
		counts[k] = ir.IRInt(n)
	}
	callables := make(ir.IRArray, len(s.Callables))
	for i, cs := range s.Callables {
		callables[i] = ir.IRObject{
			"name":      ir.IRString(cs.Name),
			"variant":   ir.IRString(cs.Variant),
			"signature": ir.IRString(cs.Signature),
		}
	}
	data, err := ir.MarshalCanonical(ir.IRObject{
		"modules":   ir.StringArray(s.Modules),
		"counts":    counts,
		"callables": callables,
	})
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
