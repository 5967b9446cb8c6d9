package cli

import (
	"github.com/spf13/cobra"
)

func pipCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pip",
		Short: "Run individual package-manager steps",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "upgrade",
		Short:   "Upgrade the package manager itself",
		Example: "  modelenv pip upgrade",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newPip()
			if err != nil {
				return err
			}
			return p.SelfUpgrade(cmd.Context())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "install [manifest]",
		Short:   "Install dependencies from the requirements manifest",
		Example: "  modelenv pip install\n  modelenv pip install requirements-dev.txt",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest := a.cfg.Requirements
			if len(args) == 1 {
				manifest = args[0]
			}
			p, err := a.newPip()
			if err != nil {
				return err
			}
			return p.InstallRequirements(cmd.Context(), manifest)
		},
	})

	return cmd
}
