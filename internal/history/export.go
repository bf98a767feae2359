// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/dmc/pkg/types"
)

// WriteYAML writes runs as a YAML sequence.
func WriteYAML(w io.Writer, runs []types.Run) error {
	if runs == nil {
		runs = []types.Run{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// WriteJSON writes runs as an indented JSON array.
func WriteJSON(w io.Writer, runs []types.Run) error {
	if runs == nil {
		runs = []types.Run{}
	}
	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// WriteText writes runs as an aligned table.
func WriteText(w io.Writer, runs []types.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no conversions recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tOPERATION\tSTATUS\tCOMMENTS\tSOURCE\tDEST")
	for _, r := range runs {
		dest := r.Dest
		if r.Status == types.RunFailed {
			dest = "error: " + r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Operation, r.Status, r.Comments, r.Source, dest)
	}
	return tw.Flush()
}
