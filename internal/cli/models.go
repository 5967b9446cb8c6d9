package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"modelenv/internal/config"
	"modelenv/internal/setup"
)

func pullCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "pull <name>",
		Short:   "Download and install one configured model package",
		Example: "  modelenv pull en_core_web_sm",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.findModel(args[0])
			if err != nil {
				return err
			}
			if !force {
				if _, err := a.st.Get(m.Name); err == nil {
					return fmt.Errorf("model %s already installed (use --force to reinstall)", m.Name)
				}
			}
			d, err := a.setupDeps()
			if err != nil {
				return err
			}
			models := []config.Model{m}
			if err := setup.DownloadModels(cmd.Context(), models, d); err != nil {
				return err
			}
			return setup.InstallModels(cmd.Context(), models, d)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Reinstall even if already recorded")
	return cmd
}

func listCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed model packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := a.st.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(models)
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tINSTALLED\tRECEIPT")
			for _, m := range models {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, m.Version, m.InstalledAt.Format("2006-01-02 15:04"), m.ReceiptID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func removeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Short:   "Remove a model's archive, registry entry and aliases",
		Example: "  modelenv remove en_core_web_sm",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.st.Remove(args[0])
		},
	}
}
