// Package config loads the optional classmap.yaml profile configuration.
//
// Script SDKs ship overlapping snapshots that redeclare the same class
// names with different ancestor chains. Profiles keep such snapshots apart:
// each profile is loaded into its own isolated registry, so classes only
// collide when they are loaded together on purpose.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFilename = "classmap.yaml"

const currentVersion = 1

// Profile names a set of root-relative paths loaded into one registry.
// Empty Paths means the whole root.
type Profile struct {
	Name  string   `yaml:"name"`
	Paths []string `yaml:"paths"`
}

// Config is the parsed classmap.yaml.
type Config struct {
	Version  int       `yaml:"version"`
	Profiles []Profile `yaml:"profiles"`
}

// Default returns the configuration used when no classmap.yaml exists:
// a single profile covering the whole root.
func Default() *Config {
	return &Config{
		Version:  currentVersion,
		Profiles: []Profile{{Name: "default"}},
	}
}

// Load reads classmap.yaml from root, falling back to Default when the file
// does not exist.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(root, configFilename))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", configFilename, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configFilename, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configFilename, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Version != currentVersion {
		return fmt.Errorf("unsupported version %d (want %d)", c.Version, currentVersion)
	}
	if len(c.Profiles) == 0 {
		return fmt.Errorf("no profiles defined")
	}
	seen := make(map[string]struct{}, len(c.Profiles))
	for i, p := range c.Profiles {
		if p.Name == "" {
			return fmt.Errorf("profile %d has no name", i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("duplicate profile name %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// Profile returns the named profile, or nil if it does not exist.
func (c *Config) Profile(name string) *Profile {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i]
		}
	}
	return nil
}
