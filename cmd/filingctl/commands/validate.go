package commands

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/wizard"
)

var errInvalid = errors.New("form state is invalid")

func validateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run every step check against a YAML form state",
		Long: "Loads a form state keyed by field name (use - for stdin), runs the\n" +
			"predicate of every step and the registry declaration check, and exits\n" +
			"non-zero when anything fails.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			partial, err := decodeState(raw)
			if err != nil {
				return err
			}
			if !report(cmd.OutOrStdout(), registry(), partial) {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML form state file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read form state: %w", err)
	}
	return b, nil
}

func decodeState(raw []byte) (map[models.Field]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse form state: %w", err)
	}
	out := make(map[models.Field]any, len(doc))
	for k, v := range doc {
		out[models.Field(k)] = v
	}
	return out, nil
}

// report prints one line per step plus any import and declaration problems,
// and reports whether everything passed.
func report(w io.Writer, reg *wizard.Registry, partial map[models.Field]any) bool {
	ok := true
	state := wizard.NewFormState()
	for _, err := range state.Import(partial) {
		ok = false
		fmt.Fprintf(w, "import: %v\n", err)
	}

	for _, step := range reg.Steps() {
		res := reg.Validate(step.ID, state)
		if res.Valid {
			fmt.Fprintf(w, "PASS %2d %s\n", step.ID, step.Label)
			continue
		}
		ok = false
		fmt.Fprintf(w, "FAIL %2d %s\n", step.ID, step.Label)
		for _, key := range slices.Sorted(maps.Keys(res.Errors)) {
			fmt.Fprintf(w, "       %s: %s\n", key, res.Errors[key])
		}
	}

	for _, v := range reg.CheckDeclarations() {
		ok = false
		fmt.Fprintf(w, "declaration: %s\n", v)
	}
	return ok
}
