// SPDX-License-Identifier: AGPL-3.0-or-later

package provisioning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"packline/pkg/location"
)


// ErrConfigNotFound is returned when the config file does not exist at the
// given path.
var ErrConfigNotFound = errors.New("provisioning config not found")

// yamlLocation is the on-disk shape of a FeaturePackLocation.
type yamlLocation struct {
	Universe   string `yaml:"universe,omitempty"`
	Producer   string `yaml:"producer,omitempty"`
	Channel    string `yaml:"channel,omitempty"`
	Frequency  string `yaml:"frequency,omitempty"`
	Build      string `yaml:"build,omitempty"`
	Coordinate string `yaml:"coordinate,omitempty"`
}

func (y yamlLocation) toLocation() location.FeaturePackLocation {
	return location.FeaturePackLocation{
		Universe:   y.Universe,
		Producer:   y.Producer,
		Channel:    y.Channel,
		Frequency:  y.Frequency,
		Build:      y.Build,
		Coordinate: y.Coordinate,
	}
}

func fromLocation(fpl location.FeaturePackLocation) yamlLocation {
	return yamlLocation{
		Universe:   fpl.Universe,
		Producer:   fpl.Producer,
		Channel:    fpl.Channel,
		Frequency:  fpl.Frequency,
		Build:      fpl.Build,
		Coordinate: fpl.Coordinate,
	}
}

// yamlFeaturePack is the on-disk shape of a FeaturePackConfig.
type yamlFeaturePack struct {
	yamlLocation `yaml:",inline"`
	Patches      []yamlLocation    `yaml:"patches,omitempty"`
	Options      map[string]string `yaml:"options,omitempty"`
}

// yamlConfig is the on-disk shape of a ProvisioningConfig.
type yamlConfig struct {
	FeaturePacks    []yamlFeaturePack `yaml:"feature_packs,omitempty"`
	Transitive      []yamlFeaturePack `yaml:"transitive,omitempty"`
	Options         map[string]string `yaml:"options,omitempty"`
	UniverseAliases map[string]string `yaml:"universe_aliases,omitempty"`
}

// Exists reports whether a config file exists at path.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Load reads and parses a ProvisioningConfig from a YAML file.
//
// It returns ErrConfigNotFound if the file does not exist.
func Load(path string) (ProvisioningConfig, error) {
	exists, err := Exists(path)
	if err != nil {
		return ProvisioningConfig{}, fmt.Errorf("checking config existence: %w", err)
	}
	if !exists {
		return ProvisioningConfig{}, ErrConfigNotFound
	}

	// nolint:gosec // G304: reading config file from a caller-supplied path is expected behavior
	data, err := os.ReadFile(path)
	if err != nil {
		return ProvisioningConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return ProvisioningConfig{}, fmt.Errorf("parsing config file: %w", err)
	}

	b := NewBuilder()
	for _, fp := range raw.FeaturePacks {
		b.AddDirect(fp.toFeaturePackConfig(false))
	}
	for _, fp := range raw.Transitive {
		b.SetTransitive(fp.toFeaturePackConfig(true))
	}
	for k, v := range raw.Options {
		b.SetOption(k, v)
	}
	for k, v := range raw.UniverseAliases {
		b.SetUniverseAlias(k, v)
	}
	return b.Build(), nil
}

func (y yamlFeaturePack) toFeaturePackConfig(transitive bool) FeaturePackConfig {
	var patches []location.FeaturePackID
	for _, p := range y.Patches {
		patches = append(patches, p.toLocation())
	}
	return FeaturePackConfig{
		Location:   y.yamlLocation.toLocation(),
		Transitive: transitive,
		Patches:    patches,
		Options:    y.Options,
	}
}

func toYamlFeaturePack(c FeaturePackConfig) yamlFeaturePack {
	var patches []yamlLocation
	for _, p := range c.Patches {
		patches = append(patches, fromLocation(p))
	}
	return yamlFeaturePack{
		yamlLocation: fromLocation(c.Location),
		Patches:      patches,
		Options:      c.Options,
	}
}

// Save writes cfg to path as YAML, overwriting any existing file.
func Save(path string, cfg ProvisioningConfig) error {
	raw := yamlConfig{
		Options:         cfg.Options(),
		UniverseAliases: cfg.UniverseAliases(),
	}
	for _, e := range cfg.Direct() {
		raw.FeaturePacks = append(raw.FeaturePacks, toYamlFeaturePack(e))
	}
	for _, p := range cfg.SortedTransitiveProducers() {
		e, _ := cfg.FindTransitive(p)
		raw.Transitive = append(raw.Transitive, toYamlFeaturePack(e))
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
