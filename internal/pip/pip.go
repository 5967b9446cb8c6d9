// Package pip wraps the Python package manager invoked through an
// interpreter, covering the commands the provisioning pipeline needs:
// self-upgrade, bulk install from a manifest, single-archive install,
// and the NLP library's alias/link subcommand.
package pip

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"modelenv/internal/execx"
)

// Sentinel errors. Use errors.Is() to check for specific conditions.
var (
	// ErrInterpreterNotFound indicates the configured interpreter is not on PATH.
	ErrInterpreterNotFound = errors.New("pip: python interpreter not found")

	// ErrManifestMissing indicates the requirements manifest does not exist.
	ErrManifestMissing = errors.New("pip: requirements manifest not found")
)

// Pip runs package-manager commands through a Python interpreter.
type Pip struct {
	python string
	runner execx.Runner
	log    zerolog.Logger
}

// New verifies the interpreter is resolvable and returns a Pip.
func New(python string, runner execx.Runner, log zerolog.Logger) (*Pip, error) {
	if python == "" {
		return nil, fmt.Errorf("%w: empty interpreter name", ErrInterpreterNotFound)
	}
	if _, err := execx.LookPath(python); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInterpreterNotFound, python)
	}
	return &Pip{python: python, runner: runner, log: log}, nil
}

// SelfUpgrade upgrades the package manager itself.
func (p *Pip) SelfUpgrade(ctx context.Context) error {
	p.log.Info().Str("python", p.python).Msg("upgrading pip")
	return p.run(ctx, "pip", "install", "--upgrade", "pip")
}

// InstallRequirements installs every package listed in the manifest file.
func (p *Pip) InstallRequirements(ctx context.Context, manifest string) error {
	if _, err := os.Stat(manifest); err != nil {
		return fmt.Errorf("%w: %s", ErrManifestMissing, manifest)
	}
	p.log.Info().Str("manifest", manifest).Msg("installing requirements")
	return p.run(ctx, "pip", "install", "-r", manifest)
}

// InstallArchive installs a downloaded release archive as a local package.
func (p *Pip) InstallArchive(ctx context.Context, archive string) error {
	if _, err := os.Stat(archive); err != nil {
		return fmt.Errorf("pip: archive not found: %s: %w", archive, err)
	}
	p.log.Info().Str("archive", archive).Msg("installing archive")
	return p.run(ctx, "pip", "install", archive)
}

// Show checks that a package is installed and importable by the package
// manager's own metadata. Used by post-setup verification.
func (p *Pip) Show(ctx context.Context, pkg string) error {
	return p.run(ctx, "pip", "show", "-q", pkg)
}

// Link registers a short alias for an installed model package via the NLP
// library's CLI, e.g. "python -m spacy link en_core_web_sm en".
func (p *Pip) Link(ctx context.Context, tool, pkg, alias string) error {
	p.log.Info().Str("tool", tool).Str("package", pkg).Str("alias", alias).Msg("registering link")
	return p.run(ctx, tool, "link", pkg, alias)
}

// run invokes "python -m <module> <args...>".
func (p *Pip) run(ctx context.Context, module string, args ...string) error {
	argv := append([]string{"-m", module}, args...)
	return p.runner.Run(ctx, execx.Cmd{Path: p.python, Args: argv})
}
