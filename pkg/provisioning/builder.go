// SPDX-License-Identifier: AGPL-3.0-or-later

package provisioning

import "packline/pkg/location"

// Builder produces modified copies of a ProvisioningConfig. A zero-value
// Builder builds an empty config. Every mutator returns the same *Builder
// for chaining and mutates the builder's working copy, never a config
// handed to FromConfig.
type Builder struct {
	direct          []FeaturePackConfig
	transitive      map[location.ProducerSpec]FeaturePackConfig
	options         map[string]string
	universeAliases map[string]string
}

// NewBuilder returns a Builder seeded with an empty config.
func NewBuilder() *Builder {
	return &Builder{
		transitive:      map[location.ProducerSpec]FeaturePackConfig{},
		options:         map[string]string{},
		universeAliases: map[string]string{},
	}
}

// FromConfig seeds the builder with a deep copy of cfg.
func FromConfig(cfg ProvisioningConfig) *Builder {
	b := NewBuilder()
	for _, e := range cfg.direct {
		b.direct = append(b.direct, e.clone())
	}
	for k, v := range cfg.transitive {
		b.transitive[k] = v.clone()
	}
	for k, v := range cfg.options {
		b.options[k] = v
	}
	for k, v := range cfg.universeAliases {
		b.universeAliases[k] = v
	}
	return b
}

// Build returns the finished, independent ProvisioningConfig.
func (b *Builder) Build() ProvisioningConfig {
	return ProvisioningConfig{
		direct:          append([]FeaturePackConfig(nil), b.direct...),
		transitive:      cloneConfigMap(b.transitive),
		options:         cloneStringMap(b.options),
		universeAliases: cloneStringMap(b.universeAliases),
	}
}

func cloneConfigMap(m map[location.ProducerSpec]FeaturePackConfig) map[location.ProducerSpec]FeaturePackConfig {
	out := make(map[location.ProducerSpec]FeaturePackConfig, len(m))
	for k, v := range m {
		out[k] = v.clone()
	}
	return out
}

// AddDirect appends fpConfig to the end of the direct list.
func (b *Builder) AddDirect(fpConfig FeaturePackConfig) *Builder {
	b.direct = append(b.direct, fpConfig.clone())
	return b
}

// InsertDirect inserts fpConfig at index, shifting later entries right.
// index is clamped to [0, len(direct)].
func (b *Builder) InsertDirect(index int, fpConfig FeaturePackConfig) *Builder {
	if index < 0 {
		index = 0
	}
	if index > len(b.direct) {
		index = len(b.direct)
	}
	b.direct = append(b.direct, FeaturePackConfig{})
	copy(b.direct[index+1:], b.direct[index:])
	b.direct[index] = fpConfig.clone()
	return b
}

// ReplaceDirect overwrites the direct entry at index.
func (b *Builder) ReplaceDirect(index int, fpConfig FeaturePackConfig) *Builder {
	if index < 0 || index >= len(b.direct) {
		return b
	}
	b.direct[index] = fpConfig.clone()
	return b
}

// RemoveDirectAt removes the direct entry at index.
func (b *Builder) RemoveDirectAt(index int) *Builder {
	if index < 0 || index >= len(b.direct) {
		return b
	}
	b.direct = append(b.direct[:index], b.direct[index+1:]...)
	return b
}

// RemoveDirect removes the direct entry for producer, if present.
func (b *Builder) RemoveDirect(producer location.ProducerSpec) *Builder {
	for i, e := range b.direct {
		if e.Producer() == producer {
			return b.RemoveDirectAt(i)
		}
	}
	return b
}

// IndexOfDirect returns the index of the direct entry for producer, or -1.
func (b *Builder) IndexOfDirect(producer location.ProducerSpec) int {
	for i, e := range b.direct {
		if e.Producer() == producer {
			return i
		}
	}
	return -1
}

// DirectAt returns the direct entry at index and whether index is valid.
func (b *Builder) DirectAt(index int) (FeaturePackConfig, bool) {
	if index < 0 || index >= len(b.direct) {
		return FeaturePackConfig{}, false
	}
	return b.direct[index], true
}

// DirectLen returns the number of direct entries.
func (b *Builder) DirectLen() int {
	return len(b.direct)
}

// SetTransitive sets (or replaces) the transitive entry for producer.
func (b *Builder) SetTransitive(fpConfig FeaturePackConfig) *Builder {
	b.transitive[fpConfig.Producer()] = fpConfig.clone()
	return b
}

// RemoveTransitive removes the transitive entry for producer.
func (b *Builder) RemoveTransitive(producer location.ProducerSpec) *Builder {
	delete(b.transitive, producer)
	return b
}

// GetTransitive returns the transitive entry for producer, if any.
func (b *Builder) GetTransitive(producer location.ProducerSpec) (FeaturePackConfig, bool) {
	e, ok := b.transitive[producer]
	return e, ok
}

// SetOption sets a global option.
func (b *Builder) SetOption(name, value string) *Builder {
	b.options[name] = value
	return b
}

// RemoveOption removes a global option.
func (b *Builder) RemoveOption(name string) *Builder {
	delete(b.options, name)
	return b
}

// ClearOptions removes all global options.
func (b *Builder) ClearOptions() *Builder {
	b.options = map[string]string{}
	return b
}

// SetUniverseAlias registers an alias name for a universe factory id.
func (b *Builder) SetUniverseAlias(alias, universe string) *Builder {
	b.universeAliases[alias] = universe
	return b
}
