// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/dmc/internal/history"
	"github.com/pdiddy/dmc/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent conversion runs",
	Long: `History lists conversions recorded in the local run log, newest first.
Only run summaries are kept: paths, direction, comment counts and outcome.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")
		op, _ := cmd.Flags().GetString("operation")
		status, _ := cmd.Flags().GetString("status")
		prune, _ := cmd.Flags().GetDuration("prune")

		store := state.store
		if store == nil {
			if !state.cfg.History.Enabled {
				return errors.New("conversion history is disabled (history.enabled)")
			}
			return fmt.Errorf("conversion history unavailable at %s", state.cfg.History.Path)
		}
		ctx := cmd.Context()

		if prune > 0 {
			n, err := store.Prune(ctx, time.Now().Add(-prune))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d run(s)\n", n)
			return nil
		}

		runs, err := store.List(ctx, history.QueryOptions{
			Limit:     limit,
			Operation: types.Operation(op),
			Status:    types.RunStatus(status),
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch format {
		case formatYAML:
			return history.WriteYAML(out, runs)
		case formatJSON:
			return history.WriteJSON(out, runs)
		case formatText, "":
			return history.WriteText(out, runs)
		}
		return fmt.Errorf("unknown format %q: use text, yaml or json", format)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of dmc and pandoc",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeVersion(cmd, cmd.OutOrStdout())
	},
}

func writeVersion(cmd *cobra.Command, w io.Writer) error {
	fmt.Fprintf(w, "dmc %s\n", version)
	if state.tr == nil {
		return nil
	}
	v, err := state.tr.Version(cmd.Context())
	if err != nil {
		fmt.Fprintf(w, "pandoc: unavailable (%v)\n", err)
		return nil
	}
	fmt.Fprintln(w, v)
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to show")
	historyCmd.Flags().String("format", formatText, "output format: text, yaml or json")
	historyCmd.Flags().String("operation", "", "only runs of this operation: docx2md, md2docx, annotate or strip")
	historyCmd.Flags().String("status", "", "only runs with this status: converted or failed")
	historyCmd.Flags().Duration("prune", 0, "delete runs older than this duration instead of listing")

	rootCmd.AddCommand(historyCmd, versionCmd)
}
