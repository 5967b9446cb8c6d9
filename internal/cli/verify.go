package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"modelenv/internal/setup"
)

func verifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Run post-setup smoke checks",
		Long: "Checks that the manifest exists and each of its dependencies is " +
			"installed, every configured model package is installed and recorded, " +
			"its archive is present, and its alias resolves.",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.setupDeps()
			if err != nil {
				return err
			}
			problems, err := setup.Verify(cmd.Context(), a.cfg, d)
			if err != nil {
				return err
			}
			if len(problems) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "environment healthy")
				return nil
			}
			for _, p := range problems {
				fmt.Fprintln(cmd.OutOrStdout(), "problem:", p)
			}
			return fmt.Errorf("%d problem(s) found", len(problems))
		},
	}
}
