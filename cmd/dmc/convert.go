// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/dmc/internal/convert"
)

// convertOptions are the dmc options of the conversion commands.
type convertOptions struct {
	output string
	clean  bool
	ref    string
}

func (o *convertOptions) specs(clean, ref bool) []flagSpec {
	specs := []flagSpec{stringFlag("-o", "--output", &o.output)}
	if clean {
		specs = append(specs, boolFlag("", "--clean", &o.clean))
	}
	if ref {
		specs = append(specs, stringFlag("-r", "--ref", &o.ref))
	}
	return specs
}

// parseConversion splits args, loads configuration and returns the inputs
// and pandoc passthrough arguments. The persistent options are accepted
// alongside specs. It reports help as handled.
func parseConversion(cmd *cobra.Command, args []string, specs []flagSpec) (inputs, passthrough []string, handled bool, err error) {
	split, err := splitArgs(args, append(state.globalFlags(), specs...))
	if err != nil {
		return nil, nil, false, err
	}
	if split.help {
		return nil, nil, true, cmd.Help()
	}
	if err := state.setup(); err != nil {
		return nil, nil, false, err
	}
	return split.inputs, split.passthrough, false, nil
}

func runAuto(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	if args[0] == "-V" || args[0] == "--version" {
		fmt.Fprintf(cmd.OutOrStdout(), "dmc %s\n", version)
		return nil
	}
	var opts convertOptions
	inputs, passthrough, handled, err := parseConversion(cmd, args, opts.specs(true, true))
	if err != nil || handled {
		return err
	}
	return convertInputs(cmd, inputs, passthrough, opts, nil)
}

// convertInputs converts one file, or several as a batch. want, when set,
// rejects inputs of the wrong type for a directional command.
func convertInputs(cmd *cobra.Command, inputs, passthrough []string, opts convertOptions, want func(string) bool) error {
	if len(inputs) == 0 {
		return errors.New("no input files")
	}
	req := convert.Request{Args: passthrough, Clean: opts.clean, ReferenceDoc: opts.ref}
	e := state.engine()
	ctx := cmd.Context()

	if len(inputs) == 1 {
		req.Source = inputs[0]
		req.Dest = opts.output
		if want != nil && !want(req.Source) {
			return fmt.Errorf("%s: %w", req.Source, convert.ErrUnsupported)
		}
		if _, err := os.Stat(req.Source); err != nil {
			return fmt.Errorf("input not found: %w", err)
		}
		res, err := e.Convert(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "converted: %s -> %s (%d comments)\n", res.Source, res.Dest, res.Comments)
		return nil
	}

	if opts.output != "" {
		return errors.New("-o/--output needs a single input file")
	}
	result := e.ConvertBatch(ctx, inputs, req, want, cmd.OutOrStdout())
	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed", result.Failed)
	}
	return nil
}

var docx2mdCmd = &cobra.Command{
	Use:     "docx2md <in.docx> [-o out.md] [--clean] [pandoc options]",
	Aliases: []string{"d2m"},
	Short:   "Convert DOCX to Markdown",
	Long: `docx2md converts a Word document to Markdown. Comment markers carry the
reply parent and resolved state read from the package, plus Word's paragraph
and durable identifiers and author presence unless --clean is given.`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts convertOptions
		inputs, passthrough, handled, err := parseConversion(cmd, args, opts.specs(true, false))
		if err != nil || handled {
			return err
		}
		return convertInputs(cmd, inputs, passthrough, opts, convert.IsDocx)
	},
}

var md2docxCmd = &cobra.Command{
	Use:     "md2docx <in.md> [-o out.docx] [-r ref.docx] [pandoc options]",
	Aliases: []string{"m2d"},
	Short:   "Convert Markdown to DOCX",
	Long: `md2docx converts Markdown to a Word document. Reply threads, resolved
state and the identifiers carried on comment markers are written into the
package's comment parts. -r/--ref maps to pandoc --reference-doc.`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts convertOptions
		inputs, passthrough, handled, err := parseConversion(cmd, args, opts.specs(false, true))
		if err != nil || handled {
			return err
		}
		return convertInputs(cmd, inputs, passthrough, opts, func(p string) bool { return !convert.IsDocx(p) })
	},
}

func init() {
	rootCmd.AddCommand(docx2mdCmd, md2docxCmd)
}
