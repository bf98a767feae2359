// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/dmc/internal/comments"
	"github.com/pdiddy/dmc/internal/convert"
	"github.com/pdiddy/dmc/pkg/types"
)

var stripCmd = &cobra.Command{
	Use:   "strip <in.md> [-o out.md] [pandoc options]",
	Short: "Remove Word identifiers from comment markers",
	Long: `Strip writes a copy of a Markdown file with the paraId, durableId,
presenceProvider and presenceUserId attributes removed from every comment
marker. Reply parents and resolved state are kept. The input is never
modified; the default output is <name>.clean.md.`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var output string
		inputs, passthrough, handled, err := parseConversion(cmd, args, []flagSpec{stringFlag("-o", "--output", &output)})
		if err != nil || handled {
			return err
		}
		if len(inputs) != 1 {
			return errors.New("strip takes exactly one input file")
		}
		src := inputs[0]
		if !convert.IsMarkdown(src) {
			return fmt.Errorf("%s: strip works on Markdown files", src)
		}
		if output == "" {
			output = strings.TrimSuffix(src, filepath.Ext(src)) + ".clean" + filepath.Ext(src)
		}
		n, err := state.engine().StripFile(cmd.Context(), src, output, passthrough)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stripped: %s -> %s (%d attributes removed)\n", src, output, n)
		return nil
	},
}

var annotateCmd = &cobra.Command{
	Use:   "annotate <in.md> [--from doc.docx] --set ID.KEY=VALUE... [-o out.md] [pandoc options]",
	Short: "Set attributes on comment markers",
	Long: `Annotate writes attribute values onto the start markers of the named
comments, for example --set 3.state=resolved --set 5.parent=4. Keys are
parent, state, paraId, durableId, presenceProvider and presenceUserId.
--from copies threads, state and Word identifiers from the comments of
another file, matched by comment id; --set values override them.
The file is rewritten in place unless -o is given.`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			output string
			from   string
			sets   []string
		)
		specs := []flagSpec{
			stringFlag("-o", "--output", &output),
			{long: "--from", value: true, set: func(v string) { from = v }},
			{long: "--set", value: true, set: func(v string) { sets = append(sets, v) }},
		}
		inputs, passthrough, handled, err := parseConversion(cmd, args, specs)
		if err != nil || handled {
			return err
		}
		if len(inputs) != 1 {
			return errors.New("annotate takes exactly one input file")
		}
		var base []types.Comment
		if from != "" {
			if base, err = state.engine().Inspect(cmd.Context(), from, passthrough); err != nil {
				return err
			}
		}
		set, err := annotationSet(base, sets)
		if err != nil {
			return err
		}
		n, err := state.engine().AnnotateFile(cmd.Context(), inputs[0], output, set, passthrough)
		if err != nil {
			return err
		}
		dest := output
		if dest == "" {
			dest = inputs[0]
		}
		fmt.Fprintf(cmd.OutOrStdout(), "annotated: %s (%d attributes changed)\n", dest, n)
		return nil
	},
}

// annotationSet overlays the --set assignments on the metadata of base.
func annotationSet(base []types.Comment, assignments []string) (comments.AttributeSet, error) {
	set, err := parseAssignments(assignments)
	if err != nil {
		return set, err
	}
	set = comments.BuildAttributes(base, true).Merge(set)
	if set.Len() == 0 {
		return set, errors.New("nothing to set: use --set ID.KEY=VALUE or --from FILE")
	}
	return set, nil
}

// parseAssignments turns ID.KEY=VALUE strings into an attribute set. The
// id is everything before the last dot of the left-hand side.
func parseAssignments(assignments []string) (comments.AttributeSet, error) {
	var set comments.AttributeSet
	for _, a := range assignments {
		lhs, value, ok := strings.Cut(a, "=")
		if !ok {
			return set, fmt.Errorf("--set %q: expected ID.KEY=VALUE", a)
		}
		dot := strings.LastIndex(lhs, ".")
		if dot <= 0 || dot == len(lhs)-1 {
			return set, fmt.Errorf("--set %q: expected ID.KEY=VALUE", a)
		}
		id, key := lhs[:dot], lhs[dot+1:]
		if !isAnnotatedKey(key) {
			return set, fmt.Errorf("--set %q: unknown attribute %q", a, key)
		}
		if key == comments.KeyState {
			if _, ok := types.ParseState(value); !ok {
				return set, fmt.Errorf("--set %q: state must be active or resolved", a)
			}
		}
		set.Put(id, key, value)
	}
	return set, nil
}

func isAnnotatedKey(key string) bool {
	switch key {
	case comments.KeyParent, comments.KeyState, comments.KeyParaID, comments.KeyDurableID,
		comments.KeyPresenceProvider, comments.KeyPresenceUserID:
		return true
	}
	return false
}

func init() {
	rootCmd.AddCommand(stripCmd, annotateCmd)
}
