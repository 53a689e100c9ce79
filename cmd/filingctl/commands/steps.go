package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"taxfile/internal/filing/models"
)

func stepsCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "List the wizard steps in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, step := range registry().Steps() {
				if !verbose {
					fmt.Fprintf(tw, "%d\t%s\n", step.ID, step.Label)
					continue
				}
				fmt.Fprintf(tw, "%d\t%s\twrites: %s\treads: %s\n", step.ID, step.Label, joinFields(step.Writes), joinFields(step.Reads))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the fields each step reads and writes")
	return cmd
}

func joinFields(fields []models.Field) string {
	if len(fields) == 0 {
		return "-"
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}
