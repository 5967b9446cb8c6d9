package setup

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"modelenv/internal/config"
)

// Verify runs the post-setup smoke checks: every dependency in the manifest
// and every configured model package is known to the package manager, each
// model's archive is present in the store, and its alias resolves to it.
// Returns the list of problems found; an empty list means the environment
// is healthy.
func Verify(ctx context.Context, cfg config.Config, d Deps) ([]string, error) {
	var problems []string

	if _, err := os.Stat(cfg.Requirements); err != nil {
		problems = append(problems, fmt.Sprintf("requirements manifest missing: %s", cfg.Requirements))
	} else {
		entries, err := manifestEntries(cfg.Requirements)
		if err != nil {
			return nil, fmt.Errorf("reading manifest: %w", err)
		}
		for _, pkg := range entries {
			if err := d.Pip.Show(ctx, pkg); err != nil {
				problems = append(problems, fmt.Sprintf("dependency %s not installed: %v", pkg, err))
			}
		}
	}

	for _, m := range cfg.Models {
		if err := d.Pip.Show(ctx, m.Name); err != nil {
			problems = append(problems, fmt.Sprintf("package %s not installed: %v", m.Name, err))
		}

		entry, err := d.Store.Get(m.Name)
		if err != nil {
			problems = append(problems, fmt.Sprintf("model %s not in local registry", m.Name))
		} else if entry.ArchivePath != "" {
			if _, err := os.Stat(entry.ArchivePath); err != nil {
				problems = append(problems, fmt.Sprintf("archive for %s missing: %s", m.Name, entry.ArchivePath))
			}
		}

		if m.Alias == "" {
			continue
		}
		pkg, err := d.Store.Resolve(m.Alias)
		if err != nil {
			problems = append(problems, fmt.Sprintf("alias %s not registered", m.Alias))
		} else if pkg != m.Name {
			problems = append(problems, fmt.Sprintf("alias %s resolves to %s, want %s", m.Alias, pkg, m.Name))
		}
	}

	return problems, nil
}

// manifestEntries extracts the package names from a requirements manifest.
// Blank lines, comments and pip option lines (-r, --index-url, -e ...) are
// skipped; version specifiers, extras and environment markers are stripped,
// so `pandas[excel]>=1.0 ; python_version > "3.8"` yields `pandas`.
func manifestEntries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if i := strings.IndexAny(line, " \t[]<>=!~;@#"); i >= 0 {
			line = line[:i]
		}
		if line != "" {
			entries = append(entries, line)
		}
	}
	return entries, sc.Err()
}
