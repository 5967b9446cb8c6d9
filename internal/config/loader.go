package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Model describes one pretrained model package to provision.
type Model struct {
	// Name is the installable package name, e.g. "en_core_web_sm".
	Name string `json:"name" yaml:"name" toml:"name"`
	// Version of the release artifact.
	Version string `json:"version" yaml:"version" toml:"version"`
	// URL is the direct link to the versioned release archive.
	URL string `json:"url" yaml:"url" toml:"url"`
	// SHA256 optionally pins the archive digest (lowercase hex).
	SHA256 string `json:"sha256,omitempty" yaml:"sha256,omitempty" toml:"sha256,omitempty"`
	// Alias is the short name to register for the installed package.
	// Empty means no alias is registered.
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty" toml:"alias,omitempty"`
}

// ArchiveName returns the filename component of the model's URL.
func (m Model) ArchiveName() string {
	u, err := url.Parse(m.URL)
	if err != nil || u.Path == "" {
		return path.Base(m.URL)
	}
	return path.Base(u.Path)
}

// Config holds runtime parameters for the CLI and the inventory daemon.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr         string  `json:"addr" yaml:"addr" toml:"addr"`
	DataDir      string  `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
	Python       string  `json:"python" yaml:"python" toml:"python"`
	Requirements string  `json:"requirements" yaml:"requirements" toml:"requirements"`
	LinkTool     string  `json:"link_tool" yaml:"link_tool" toml:"link_tool"`
	LogLevel     string  `json:"log_level" yaml:"log_level" toml:"log_level"`
	Models       []Model `json:"models" yaml:"models" toml:"models"`
}

// Defaults applied when fields are unspecified.
const (
	DefaultAddr         = ":8090"
	DefaultPython       = "python3"
	DefaultRequirements = "requirements.txt"
	DefaultLinkTool     = "spacy"
	DefaultLogLevel     = "info"
)

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyDefaults fills unspecified fields. Environment variables take
// precedence over built-in defaults: MODELENV_ADDR, MODELENV_PYTHON,
// MODELENV_DATA_DIR, MODELENV_LOG_LEVEL.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = envOr("MODELENV_ADDR", DefaultAddr)
	}
	if c.DataDir == "" {
		c.DataDir = os.Getenv("MODELENV_DATA_DIR")
	}
	if c.Python == "" {
		c.Python = envOr("MODELENV_PYTHON", DefaultPython)
	}
	if c.Requirements == "" {
		c.Requirements = DefaultRequirements
	}
	if c.LinkTool == "" {
		c.LinkTool = DefaultLinkTool
	}
	if c.LogLevel == "" {
		c.LogLevel = envOr("MODELENV_LOG_LEVEL", DefaultLogLevel)
	}
}

// Validate reports configuration errors that would make a setup run
// fail halfway through.
func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Models))
	archives := make(map[string]string, len(c.Models))
	for i, m := range c.Models {
		if m.Name == "" {
			return fmt.Errorf("models[%d]: name is required", i)
		}
		if m.URL == "" {
			return fmt.Errorf("models[%d] (%s): url is required", i, m.Name)
		}
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("models[%d]: duplicate model name %q", i, m.Name)
		}
		seen[m.Name] = struct{}{}
		// two models landing at the same archive path would clobber and
		// co-own each other's file
		if archive := m.ArchiveName(); archive != "" {
			if other, dup := archives[archive]; dup {
				return fmt.Errorf("models[%d] (%s): archive %q already used by model %q", i, m.Name, archive, other)
			}
			archives[archive] = m.Name
		}
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
