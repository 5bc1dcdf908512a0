package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bankfeed-dev/bankfeed/internal/engine"
)

// inspectSampleRows caps how much of a file inspect reads.
const inspectSampleRows = 100

func newInspectCommand(verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Detect format and report inferred fields without ingesting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], *verbose)
		},
	}
	return cmd
}

func runInspect(cmd *cobra.Command, file string, verbose bool) error {
	res := engine.ParseFile(cmd.Context(), file, engine.Options{
		MaxRows: inspectSampleRows,
		Logger:  newLogger(verbose),
	})
	if !res.Success {
		for _, e := range res.Errors {
			cmd.Printf("error: %s\n", e.Error())
		}
		return fmt.Errorf("could not inspect %s", filepath.Base(file))
	}

	if res.HasBOM {
		cmd.Println("byte-order mark detected")
	}
	cmd.Printf("%-30s %-10s %-6s %s\n", "FIELD", "TYPE", "CONF", "SAMPLE")
	for _, f := range res.Fields {
		sample := f.SampleValue
		if len(sample) > 40 {
			sample = sample[:37] + "..."
		}
		cmd.Printf("%-30s %-10s %.2f   %s\n", f.Name, string(f.Type), f.Confidence, sample)
	}
	cmd.Printf("%d row(s) sampled\n", res.Stats.TotalRows)
	return nil
}
