// Package setup orchestrates the provisioning pipeline: upgrade the package
// manager, install the dependency manifest, download the configured model
// archives, install them, and register their aliases. Steps run strictly in
// order; the first failure aborts the run.
package setup

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"modelenv/internal/config"
	"modelenv/internal/fetch"
	"modelenv/internal/pip"
	"modelenv/internal/store"
	"modelenv/pkg/types"
)

// Step is one named stage of the pipeline.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pipeline runs steps sequentially.
type Pipeline struct {
	Log   zerolog.Logger
	Steps []Step
}

// Run executes each step in order, stopping at the first error.
func (p *Pipeline) Run(ctx context.Context) error {
	for i, step := range p.Steps {
		p.Log.Info().Int("step", i+1).Int("of", len(p.Steps)).Str("name", step.Name).Msg("running")
		if err := step.Run(ctx); err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
	}
	p.Log.Info().Msg("setup complete")
	return nil
}

// Deps are the collaborators the pipeline drives.
type Deps struct {
	Pip        *pip.Pip
	Downloader *fetch.Downloader
	Store      *store.Store
	Log        zerolog.Logger
}

// New builds the standard five-step pipeline for cfg.
func New(cfg config.Config, d Deps) *Pipeline {
	return &Pipeline{
		Log: d.Log,
		Steps: []Step{
			{Name: "upgrade-pip", Run: d.Pip.SelfUpgrade},
			{Name: "install-requirements", Run: func(ctx context.Context) error {
				return d.Pip.InstallRequirements(ctx, cfg.Requirements)
			}},
			{Name: "download-models", Run: func(ctx context.Context) error {
				return DownloadModels(ctx, cfg.Models, d)
			}},
			{Name: "install-models", Run: func(ctx context.Context) error {
				return InstallModels(ctx, cfg.Models, d)
			}},
			{Name: "link-aliases", Run: func(ctx context.Context) error {
				return LinkAliases(ctx, cfg.LinkTool, cfg.Models, d)
			}},
		},
	}
}

// ArchivePath returns where a model's archive lands inside the store.
func ArchivePath(s *store.Store, m config.Model) string {
	return filepath.Join(s.ArchivesDir(), m.ArchiveName())
}

// DownloadModels fetches every configured model archive into the store's
// archives directory, a bounded number at a time.
func DownloadModels(ctx context.Context, models []config.Model, d Deps) error {
	jobs := make([]fetch.Job, 0, len(models))
	for _, m := range models {
		jobs = append(jobs, fetch.Job{
			URL:    m.URL,
			Dest:   ArchivePath(d.Store, m),
			SHA256: m.SHA256,
		})
	}
	return d.Downloader.FetchAll(ctx, jobs, fetch.DefaultConcurrency)
}

// InstallModels pip-installs each downloaded archive and records it in the
// local registry.
func InstallModels(ctx context.Context, models []config.Model, d Deps) error {
	for _, m := range models {
		archive := ArchivePath(d.Store, m)
		if err := d.Pip.InstallArchive(ctx, archive); err != nil {
			return fmt.Errorf("installing %s: %w", m.Name, err)
		}
		if err := d.Store.Add(types.InstalledModel{
			Name:        m.Name,
			Version:     m.Version,
			ArchivePath: archive,
			SHA256:      m.SHA256,
		}); err != nil {
			return fmt.Errorf("recording %s: %w", m.Name, err)
		}
	}
	return nil
}

// LinkAliases records each configured alias in the local registry and then
// registers it with the NLP library's own link command. The local record is
// authoritative; a failing external link is logged and skipped so the alias
// stays observable either way.
func LinkAliases(ctx context.Context, tool string, models []config.Model, d Deps) error {
	for _, m := range models {
		if m.Alias == "" {
			continue
		}
		if err := d.Store.SetAlias(m.Alias, m.Name); err != nil {
			return fmt.Errorf("registering alias %s: %w", m.Alias, err)
		}
		if err := d.Pip.Link(ctx, tool, m.Name, m.Alias); err != nil {
			d.Log.Warn().Str("alias", m.Alias).Str("package", m.Name).Err(err).
				Msg("external link command failed; local alias registered")
		}
	}
	return nil
}
