// Package config loads splash.hcl, the tool configuration for launch screen
// builds. Every field is optional; a missing file yields the defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/agentic-research/splash/api"
	"github.com/agentic-research/splash/internal/assets"
	"github.com/agentic-research/splash/internal/ibtool"
	"github.com/agentic-research/splash/internal/workspace"
)

// FileName is the config file name. The CLI reads it from the --project
// directory unless --config is given.
const FileName = "splash.hcl"

const defaultFetchTimeout = "60s"

const defaultProjectConfigHCL = `# splash configuration
platform         = "ios"
supporting_name  = "App"
compiler         = "ibtool"
fetch_timeout    = "60s"

# intermediates_dir = ".splash/intermediates"
# template_path     = "/path/to/shared/LaunchScreen.xib"
# asset_cache       = ".splash/assets.db"
`

// Config models splash.hcl.
type Config struct {
	Platform         string `hcl:"platform,optional"`
	SupportingName   string `hcl:"supporting_name,optional"`
	IntermediatesDir string `hcl:"intermediates_dir,optional"`
	TemplatePath     string `hcl:"template_path,optional"`
	Compiler         string `hcl:"compiler,optional"`
	FetchTimeout     string `hcl:"fetch_timeout,optional"`
	AssetCache       string `hcl:"asset_cache,optional"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Platform:         string(api.PlatformIOS),
		SupportingName:   workspace.DefaultSupportingName,
		IntermediatesDir: workspace.DefaultIntermediatesDir,
		Compiler:         ibtool.DefaultPath,
		FetchTimeout:     defaultFetchTimeout,
	}
}

// Load reads path. A missing file returns Default(); fields absent from the
// file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	var file Config
	if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.merge(file)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	if c.Platform != string(api.PlatformIOS) {
		return fmt.Errorf("unsupported platform %q", c.Platform)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// Timeout parses FetchTimeout.
func (c Config) Timeout() (time.Duration, error) {
	if c.FetchTimeout == "" {
		return assets.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid fetch_timeout %q: %w", c.FetchTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout)
	}
	return d, nil
}

// Layout returns the workspace layout described by the config.
func (c Config) Layout() workspace.Layout {
	return workspace.Layout{
		SupportingName:   c.SupportingName,
		IntermediatesDir: c.IntermediatesDir,
	}
}

// WriteDefault creates a commented splash.hcl at path unless one exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigHCL), 0o644)
}

func (c *Config) merge(file Config) {
	if file.Platform != "" {
		c.Platform = file.Platform
	}
	if file.SupportingName != "" {
		c.SupportingName = file.SupportingName
	}
	if file.IntermediatesDir != "" {
		c.IntermediatesDir = file.IntermediatesDir
	}
	if file.TemplatePath != "" {
		c.TemplatePath = file.TemplatePath
	}
	if file.Compiler != "" {
		c.Compiler = file.Compiler
	}
	if file.FetchTimeout != "" {
		c.FetchTimeout = file.FetchTimeout
	}
	if file.AssetCache != "" {
		c.AssetCache = file.AssetCache
	}
}

// resolvePaths makes file paths relative to the config file absolute.
// intermediates_dir stays relative: it is resolved against the project.
func (c *Config) resolvePaths(base string) {
	if c.TemplatePath != "" && !filepath.IsAbs(c.TemplatePath) {
		c.TemplatePath = filepath.Join(base, c.TemplatePath)
	}
	if c.AssetCache != "" && !filepath.IsAbs(c.AssetCache) {
		c.AssetCache = filepath.Join(base, c.AssetCache)
	}
}
