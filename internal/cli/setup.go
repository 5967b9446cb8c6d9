package cli

import (
	"github.com/spf13/cobra"

	"modelenv/internal/setup"
)

func setupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Run the full provisioning pipeline",
		Long: "Upgrade the package manager, install the dependency manifest, download " +
			"the configured model archives, install them, and register their aliases. " +
			"Steps run in order; the first failure aborts the run.",
		Example: "  modelenv setup --config modelenv.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.setupDeps()
			if err != nil {
				return err
			}
			return setup.New(a.cfg, d).Run(cmd.Context())
		},
	}
}

// setupDeps assembles the pipeline collaborators.
func (a *app) setupDeps() (setup.Deps, error) {
	p, err := a.newPip()
	if err != nil {
		return setup.Deps{}, err
	}
	return setup.Deps{
		Pip:        p,
		Downloader: a.newDownloader(),
		Store:      a.st,
		Log:        a.log,
	}, nil
}
