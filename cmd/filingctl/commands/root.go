// Package commands implements filingctl, an offline companion to the filing
// service for inspecting the step registry and checking saved form states.
package commands

import (
	"time"

	"github.com/spf13/cobra"

	"taxfile/internal/filing/wizard"
)

var (
	latestYear int
	yearCount  int
)

// Execute runs the root command against os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "filingctl",
		Short:        "Inspect the tax filing wizard offline",
		SilenceUsage: true,
	}
	root.PersistentFlags().IntVar(&latestYear, "latest-year", time.Now().Year(), "newest selectable tax year")
	root.PersistentFlags().IntVar(&yearCount, "years", 5, "number of selectable tax years")

	root.AddCommand(stepsCmd(), cnicCmd(), validateCmd())
	return root
}

func registry() *wizard.Registry {
	return wizard.NewRegistry(wizard.WithTaxYears(wizard.DefaultTaxYears(latestYear, yearCount)...))
}
