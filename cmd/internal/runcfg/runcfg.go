// Package runcfg loads the groundwork.toml workspace configuration: the
// location of the accelerator configuration files, the AWS profile and
// region to operate in, and the stage graph executed by `groundwork run`.
package runcfg

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

const configFile = "groundwork.toml"

// Stage names understood by `groundwork run`.
const (
	StageBootstrapRoles    = "bootstrap-roles"
	StageBootstrapKey      = "bootstrap-key"
	StageBootstrapAccounts = "bootstrap-accounts"
	StageOrganization      = "organization"
)

type Config struct {
	Root      string        `toml:"-"`
	ConfigDir string        `toml:"config-dir"`
	Aws       AwsConfig     `toml:"aws"`
	Stages    []StageConfig `toml:"stage"`
}

type AwsConfig struct {
	Profile string `toml:"profile"`
	Region  string `toml:"region"`
}

// StageConfig declares one stage of a run and the stages it must run after.
type StageConfig struct {
	Name      string   `toml:"name"`
	DependsOn []string `toml:"depends_on"`
}

// ConfigPath returns the absolute accelerator configuration directory.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Root, c.ConfigDir)
}

// Load finds groundwork.toml in the current or any parent directory,
// parses it, and validates it.
func Load() (*Config, error) {
	root, err := findRoot()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.DecodeFile(filepath.Join(root, configFile), &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", configFile)
	}

	cfg.Root = root

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", configFile)
	}

	return &cfg, nil
}

// Validate checks structural consistency of the configuration.
func (c *Config) Validate() error {
	if c.ConfigDir == "" {
		return errors.New("config-dir is required")
	}
	if filepath.IsAbs(c.ConfigDir) {
		return errors.Newf("config-dir must be relative, got %q", c.ConfigDir)
	}

	known := map[string]struct{}{
		StageBootstrapRoles:    {},
		StageBootstrapKey:      {},
		StageBootstrapAccounts: {},
		StageOrganization:      {},
	}
	declared := make(map[string]struct{}, len(c.Stages))
	for i, stage := range c.Stages {
		if stage.Name == "" {
			return errors.Newf("stage[%d].name is required", i)
		}
		if _, ok := known[stage.Name]; !ok {
			return errors.Newf("stage[%d].name %q is not a known stage", i, stage.Name)
		}
		if _, dup := declared[stage.Name]; dup {
			return errors.Newf("stage %q is declared twice", stage.Name)
		}
		declared[stage.Name] = struct{}{}
	}
	for i, stage := range c.Stages {
		for _, dep := range stage.DependsOn {
			if _, ok := declared[dep]; !ok {
				return errors.Newf("stage[%d] %q depends on undeclared stage %q", i, stage.Name, dep)
			}
		}
	}
	return nil
}

func findRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, configFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Newf("could not find %s in any parent directory", configFile)
		}
		dir = parent
	}
}
