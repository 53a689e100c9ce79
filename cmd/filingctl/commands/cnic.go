package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"taxfile/internal/filing/wizard"
)

func cnicCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cnic <digits>",
		Short: "Format a CNIC the way the wizard does and report whether it is complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatted := wizard.FormatCNIC(args[0])
			status := "incomplete"
			if wizard.ValidCNIC(formatted) {
				status = "valid"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", formatted, status)
			return nil
		},
	}
}
