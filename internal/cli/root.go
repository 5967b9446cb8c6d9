// Package cli wires the modelenv command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modelenv/internal/config"
	"modelenv/internal/execx"
	"modelenv/internal/fetch"
	"modelenv/internal/pip"
	"modelenv/internal/store"
)

// app carries the lazily-built collaborators shared by subcommands.
type app struct {
	cfgPath  string
	logLevel string
	dataDir  string

	cfg config.Config
	log zerolog.Logger

	st *store.Store
}

// Execute runs the root command, exiting non-zero on error.
// Ctrl+C / SIGTERM cancel the command context for graceful teardown.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// NewRootCmd constructs the full modelenv command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "modelenv",
		Short:         "Provision Python NLP environments: dependencies, model packages, aliases",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "Config file (.yaml|.yml|.json|.toml); defaults to modelenv.yaml when present")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults MODELENV_LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Override the store data directory")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" || isCompletionSub(cmd) {
			return nil
		}
		return a.init()
	}

	root.AddCommand(setupCmd(a))
	root.AddCommand(pipCmd(a))
	root.AddCommand(pullCmd(a))
	root.AddCommand(listCmd(a))
	root.AddCommand(removeCmd(a))
	root.AddCommand(linkCmd(a))
	root.AddCommand(unlinkCmd(a))
	root.AddCommand(aliasesCmd(a))
	root.AddCommand(resolveCmd(a))
	root.AddCommand(verifyCmd(a))
	root.AddCommand(serveCmd(a))
	root.AddCommand(completionCmd(root))

	return root
}

func isCompletionSub(cmd *cobra.Command) bool {
	return cmd.Parent() != nil && cmd.Parent().Name() == "completion"
}

// init loads config, builds the logger and opens the store.
func (a *app) init() error {
	path := a.cfgPath
	if path == "" {
		for _, candidate := range []string{"modelenv.yaml", "modelenv.yml", "modelenv.json", "modelenv.toml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config %s: %w", path, err)
		}
		a.cfg = cfg
	}
	if a.dataDir != "" {
		a.cfg.DataDir = a.dataDir
	}
	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}
	a.cfg.ApplyDefaults()
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(a.cfg.LogLevel))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	a.log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()

	st, err := store.Open(a.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	a.st = st
	return nil
}

// newPip builds the package-manager wrapper for commands that shell out.
func (a *app) newPip() (*pip.Pip, error) {
	return pip.New(a.cfg.Python, execx.New(a.log), a.log)
}

// newDownloader builds the artifact downloader.
func (a *app) newDownloader() *fetch.Downloader {
	return fetch.New(nil, a.log)
}

// findModel looks up a configured model by name.
func (a *app) findModel(name string) (config.Model, error) {
	for _, m := range a.cfg.Models {
		if m.Name == name {
			return m, nil
		}
	}
	return config.Model{}, fmt.Errorf("model %q not in config", name)
}

func completionCmd(root *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	cmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	cmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	cmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	cmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(os.Stdout) }})
	return cmd
}
