package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func linkCmd(a *app) *cobra.Command {
	var localOnly bool

	cmd := &cobra.Command{
		Use:     "link <alias> <package>",
		Short:   "Register an alias for an installed model package",
		Example: "  modelenv link en en_core_web_sm",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			alias, pkg := args[0], args[1]
			if prev, err := a.st.Resolve(alias); err == nil && prev != pkg {
				a.log.Warn().Str("alias", alias).Str("old", prev).Str("new", pkg).Msg("overwriting alias")
			}
			if err := a.st.SetAlias(alias, pkg); err != nil {
				return err
			}
			if localOnly {
				return nil
			}
			p, err := a.newPip()
			if err != nil {
				return err
			}
			if err := p.Link(cmd.Context(), a.cfg.LinkTool, pkg, alias); err != nil {
				a.log.Warn().Str("alias", alias).Err(err).Msg("external link command failed; local alias registered")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&localOnly, "local-only", false, "Skip the NLP library's own link command")
	return cmd
}

func unlinkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "unlink <alias>",
		Short:   "Remove a registered alias",
		Example: "  modelenv unlink en",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.st.RemoveAlias(args[0])
		},
	}
}

func aliasesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "aliases",
		Short: "List registered aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			aliases, err := a.st.Aliases()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ALIAS\tPACKAGE")
			for _, al := range aliases {
				fmt.Fprintf(w, "%s\t%s\n", al.Name, al.Package)
			}
			return w.Flush()
		},
	}
}

func resolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "resolve <alias>",
		Short:   "Print the package an alias resolves to",
		Example: "  modelenv resolve en",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := a.st.Resolve(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pkg)
			return nil
		},
	}
}
