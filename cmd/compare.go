// File: cmd/compare.go
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/boxlayout/internal/jsoncompare"
	"github.com/xkilldash9x/boxlayout/internal/observability"
)

// ErrLayoutsDiffer is returned by compare when the dumps are not equivalent.
var ErrLayoutsDiffer = errors.New("layouts differ")

// newCompareCmd creates the `compare` command, which checks two JSON
// geometry dumps for equivalence.
func newCompareCmd() *cobra.Command {
	opts := jsoncompare.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "compare <expected.json> <actual.json>",
		Short: "Compares two JSON layout dumps, ignoring run ids",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read dump: %w", err)
			}
			b, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read dump: %w", err)
			}

			res, err := jsoncompare.NewService(observability.GetLogger()).CompareWithOptions(a, b, opts)
			if err != nil {
				return err
			}
			if res.AreEquivalent {
				fmt.Fprintln(cmd.OutOrStdout(), "layouts are equivalent")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), res.Diff)
			return ErrLayoutsDiffer
		},
	}
	cmd.Flags().Float64Var(&opts.Tolerance, "tolerance", opts.Tolerance, "largest difference at which numbers compare equal")
	cmd.Flags().StringSliceVar(&opts.IgnoreKeys, "ignore", nil, "members to leave out, e.g. paint,diagnostics")
	return cmd
}
