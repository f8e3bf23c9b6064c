// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provisioning defines the immutable installation configuration
// that the layout builder consumes: an ordered list of direct feature-pack
// entries, a set of transitive entries addressed by producer, global
// options, and universe aliases.
package provisioning

import (
	"sort"

	"packline/pkg/location"
)

// FeaturePackConfig is one entry in a ProvisioningConfig: a location, a
// transitive flag, the patches attached to it, and feature-pack-specific
// options.
type FeaturePackConfig struct {
	Location   location.FeaturePackLocation
	Transitive bool
	Patches    []location.FeaturePackID
	Options    map[string]string
}

// Producer returns the ProducerSpec this entry belongs to.
func (c FeaturePackConfig) Producer() location.ProducerSpec {
	return c.Location.ProducerSpec()
}

// clone returns a deep copy so builder mutation never aliases a config's
// slices or maps.
func (c FeaturePackConfig) clone() FeaturePackConfig {
	out := c
	if c.Patches != nil {
		out.Patches = append([]location.FeaturePackID(nil), c.Patches...)
	}
	if c.Options != nil {
		out.Options = cloneStringMap(c.Options)
	}
	return out
}

// WithPatch returns a copy of c with patch appended, unless already present.
func (c FeaturePackConfig) WithPatch(patch location.FeaturePackID) FeaturePackConfig {
	out := c.clone()
	for _, p := range out.Patches {
		if p == patch {
			return out
		}
	}
	out.Patches = append(out.Patches, patch)
	return out
}

// WithoutPatch returns a copy of c with patch removed, if present.
func (c FeaturePackConfig) WithoutPatch(patch location.FeaturePackID) FeaturePackConfig {
	out := c.clone()
	filtered := out.Patches[:0]
	for _, p := range out.Patches {
		if p != patch {
			filtered = append(filtered, p)
		}
	}
	out.Patches = filtered
	return out
}

// HasPatch reports whether patch is already attached to c.
func (c FeaturePackConfig) HasPatch(patch location.FeaturePackID) bool {
	for _, p := range c.Patches {
		if p == patch {
			return true
		}
	}
	return false
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ProvisioningConfig is the immutable installation configuration: an
// ordered list of direct feature-pack entries, a set of transitive
// entries keyed by producer, a global options map, and universe aliases.
//
// Zero value is a valid empty config. Use Builder to produce modified
// copies; ProvisioningConfig itself exposes no mutators.
type ProvisioningConfig struct {
	direct          []FeaturePackConfig
	transitive      map[location.ProducerSpec]FeaturePackConfig
	options         map[string]string
	universeAliases map[string]string
}

// Direct returns the ordered direct entries. The returned slice is owned
// by the caller; mutating it does not affect the config.
func (c ProvisioningConfig) Direct() []FeaturePackConfig {
	return append([]FeaturePackConfig(nil), c.direct...)
}

// DirectIndex returns the index of the direct entry for producer, or -1.
func (c ProvisioningConfig) DirectIndex(producer location.ProducerSpec) int {
	for i, e := range c.direct {
		if e.Producer() == producer {
			return i
		}
	}
	return -1
}

// FindDirect returns the direct entry for producer, if any.
func (c ProvisioningConfig) FindDirect(producer location.ProducerSpec) (FeaturePackConfig, bool) {
	idx := c.DirectIndex(producer)
	if idx < 0 {
		return FeaturePackConfig{}, false
	}
	return c.direct[idx], true
}

// Transitive returns the transitive entries keyed by producer. The
// returned map is owned by the caller.
func (c ProvisioningConfig) Transitive() map[location.ProducerSpec]FeaturePackConfig {
	out := make(map[location.ProducerSpec]FeaturePackConfig, len(c.transitive))
	for k, v := range c.transitive {
		out[k] = v
	}
	return out
}

// FindTransitive returns the transitive entry for producer, if any.
func (c ProvisioningConfig) FindTransitive(producer location.ProducerSpec) (FeaturePackConfig, bool) {
	e, ok := c.transitive[producer]
	return e, ok
}

// IsInstalled reports whether producer is present as either a direct or
// transitive entry.
func (c ProvisioningConfig) IsInstalled(producer location.ProducerSpec) bool {
	if _, ok := c.FindDirect(producer); ok {
		return true
	}
	_, ok := c.FindTransitive(producer)
	return ok
}

// Options returns the global options map, owned by the caller.
func (c ProvisioningConfig) Options() map[string]string {
	return cloneStringMap(c.options)
}

// Option returns the value of a global option and whether it is set.
func (c ProvisioningConfig) Option(name string) (string, bool) {
	v, ok := c.options[name]
	return v, ok
}

// UniverseAliases returns the universe alias map, owned by the caller.
func (c ProvisioningConfig) UniverseAliases() map[string]string {
	return cloneStringMap(c.universeAliases)
}

// HasFeaturePacks reports whether the config declares any direct entry.
func (c ProvisioningConfig) HasFeaturePacks() bool {
	return len(c.direct) > 0
}

// sortedProducers is a small helper used by callers that need a
// deterministic iteration order over the transitive set (e.g. error
// reporting); sorted by universe then producer.
func sortedProducers(specs map[location.ProducerSpec]FeaturePackConfig) []location.ProducerSpec {
	out := make([]location.ProducerSpec, 0, len(specs))
	for p := range specs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Universe != out[j].Universe {
			return out[i].Universe < out[j].Universe
		}
		return out[i].Producer < out[j].Producer
	})
	return out
}

// SortedTransitiveProducers returns the transitive producers in
// deterministic (universe, producer) order.
func (c ProvisioningConfig) SortedTransitiveProducers() []location.ProducerSpec {
	return sortedProducers(c.transitive)
}
