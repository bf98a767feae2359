// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/dmc/internal/comments"
	"github.com/pdiddy/dmc/internal/convert"
	"github.com/pdiddy/dmc/pkg/types"
)

const (
	formatText = "text"
	formatYAML = "yaml"
	formatJSON = "json"
)

// writeFormatted writes v as YAML or JSON, or calls text for the text
// format.
func writeFormatted(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case formatText, "":
		return text(w)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	return fmt.Errorf("unknown format %q: use text, yaml or json", format)
}

var threadsCmd = &cobra.Command{
	Use:   "threads <file>",
	Short: "Print the comment threads of a DOCX or Markdown file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		list, err := state.engine().Inspect(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}
		threads := comments.Threads(list)
		if threads == nil {
			threads = []comments.Thread{}
		}
		return writeFormatted(cmd.OutOrStdout(), format, threads, func(w io.Writer) error {
			return writeThreads(w, threads)
		})
	},
}

func writeThreads(w io.Writer, threads []comments.Thread) error {
	if len(threads) == 0 {
		_, err := fmt.Fprintln(w, "no comments")
		return err
	}
	for i, t := range threads {
		if i > 0 {
			fmt.Fprintln(w)
		}
		for _, e := range t.Entries {
			indent := strings.Repeat("  ", e.Depth)
			fmt.Fprintf(w, "%s[%s] %s", indent, e.ID, e.Author)
			if e.Date != "" {
				fmt.Fprintf(w, " %s", e.Date)
			}
			fmt.Fprintf(w, " (%s)\n", stateLabel(e.State))
			if e.Depth == 0 && e.AnchorText != "" {
				fmt.Fprintf(w, "%s  on %q\n", indent, oneLine(e.AnchorText))
			}
			if e.Text != "" {
				fmt.Fprintf(w, "%s  %s\n", indent, oneLine(e.Text))
			}
		}
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Count comments, threads, replies and resolved comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		list, err := state.engine().Inspect(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}
		s := comments.Summarize(list)
		return writeFormatted(cmd.OutOrStdout(), format, s, func(w io.Writer) error {
			return writeSummary(w, s)
		})
	},
}

func writeSummary(w io.Writer, s comments.Summary) error {
	fmt.Fprintf(w, "comments:  %d\n", s.Comments)
	fmt.Fprintf(w, "threads:   %d\n", s.Threads)
	fmt.Fprintf(w, "replies:   %d\n", s.Replies)
	fmt.Fprintf(w, "resolved:  %d\n", s.Resolved)
	fmt.Fprintf(w, "active:    %d\n", s.Active)
	fmt.Fprintf(w, "anchored:  %d\n", s.Anchored)
	fmt.Fprintf(w, "with ids:  %d\n", s.Transport)
	if len(s.Authors) == 0 {
		return nil
	}
	fmt.Fprintln(w, "authors:")
	for _, a := range s.Authors {
		name := a.Author
		if name == "" {
			name = "(unknown)"
		}
		fmt.Fprintf(w, "  %-20s %d\n", name, a.Comments)
	}
	return nil
}

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate comment markers and threads",
	Long: `Check reads the comments of a DOCX or Markdown file and reports unpaired
markers, undecodable attributes and broken reply chains. With --round-trip
it also converts the file to the other format and back in a scratch
directory and reports any comment that changed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roundTrip, _ := cmd.Flags().GetBool("round-trip")
		e := state.engine()
		list, err := e.Inspect(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}
		if err := comments.ValidateThreads(list); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		s := comments.Summarize(list)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ok: %s (%d comments, %d threads)\n", args[0], s.Comments, s.Threads)
		if !roundTrip {
			return nil
		}
		diffs, err := e.Check(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}
		return reportDifferences(out, diffs, "round trip")
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <a> <b>",
	Short: "Compare the comments of two files in either format",
	Long: `Diff compares the comment ids, reply parents, resolved state and anchor
text of two files. Either file may be DOCX or Markdown. It exits non-zero
when they differ.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		diffs, err := state.engine().CompareFiles(cmd.Context(), args[0], args[1], nil)
		if err != nil {
			return err
		}
		return reportDifferences(cmd.OutOrStdout(), diffs, "comments")
	},
}

func reportDifferences(w io.Writer, diffs []convert.Difference, what string) error {
	if len(diffs) == 0 {
		fmt.Fprintf(w, "%s: no differences\n", what)
		return nil
	}
	for _, d := range diffs {
		fmt.Fprintln(w, d.String())
	}
	return fmt.Errorf("%s: %d difference(s)", what, len(diffs))
}

func init() {
	threadsCmd.Flags().String("format", formatText, "output format: text, yaml or json")
	statsCmd.Flags().String("format", formatText, "output format: text, yaml or json")
	checkCmd.Flags().Bool("round-trip", false, "also convert to the other format and back and compare")

	rootCmd.AddCommand(threadsCmd, statsCmd, checkCmd, diffCmd)
}

// stateLabel keeps text output stable for comments read without a state.
func stateLabel(s types.State) string {
	if s == "" {
		return string(types.StateActive)
	}
	return string(s)
}
