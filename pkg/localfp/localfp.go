// SPDX-License-Identifier: AGPL-3.0-or-later

// Package localfp is a filesystem-backed reference implementation of
// resolvers.LayoutFactory: each feature pack is a directory under a root,
// addressed by <universe>/<producer>/<channel>/<build>, describing its own
// dependencies and plugins in a pack.yaml manifest. It is a demo/test
// stand-in for the real archive reader the engine treats as an external
// concern (no network fetch, no archive extraction).
package localfp

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"packline/pkg/location"
	"packline/pkg/resolvers"
)

// ManifestName is the file every feature-pack directory must contain.
const ManifestName = "pack.yaml"

// yamlLocation is the on-disk shape of a dependency or patch-target
// location, mirroring pkg/provisioning's yaml config shape.
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

type yamlPluginOption struct {
	Name       string `yaml:"name"`
	Required   bool   `yaml:"required,omitempty"`
	Persistent bool   `yaml:"persistent,omitempty"`
}

type yamlArtifact struct {
	RepoID     string `yaml:"repo_id"`
	Coordinate string `yaml:"coordinate"`
}

type yamlPlugin struct {
	ID       string             `yaml:"id"`
	Type     string             `yaml:"type"`
	Artifact yamlArtifact       `yaml:"artifact"`
	Options  []yamlPluginOption `yaml:"options,omitempty"`
}

// manifest is the on-disk shape of a feature pack's pack.yaml.
type manifest struct {
	TransitiveDeps  []yamlLocation `yaml:"transitive_deps,omitempty"`
	DirectDeps      []yamlLocation `yaml:"direct_deps,omitempty"`
	Plugins         []yamlPlugin   `yaml:"plugins,omitempty"`
	IsPatch         bool           `yaml:"is_patch,omitempty"`
	PatchFor        *yamlLocation  `yaml:"patch_for,omitempty"`
	DefaultPackages []string       `yaml:"default_packages,omitempty"`
}

func (m manifest) toSpec() resolvers.FeaturePackSpec {
	spec := resolvers.FeaturePackSpec{
		IsPatch:         m.IsPatch,
		DefaultPackages: m.DefaultPackages,
	}
	for _, d := range m.TransitiveDeps {
		spec.TransitiveDeps = append(spec.TransitiveDeps, resolvers.Dependency{Location: d.toLocation()})
	}
	for _, d := range m.DirectDeps {
		spec.DirectDeps = append(spec.DirectDeps, resolvers.Dependency{Location: d.toLocation()})
	}
	for _, p := range m.Plugins {
		ref := resolvers.PluginRef{
			ID:   p.ID,
			Type: p.Type,
			Artifact: resolvers.ArtifactLocation{
				RepoID:     p.Artifact.RepoID,
				Coordinate: p.Artifact.Coordinate,
			},
		}
		for _, o := range p.Options {
			ref.Options = append(ref.Options, resolvers.PluginOption{
				Name:       o.Name,
				Required:   o.Required,
				Persistent: o.Persistent,
			})
		}
		spec.Plugins = append(spec.Plugins, ref)
	}
	if m.PatchFor != nil {
		spec.PatchFor = m.PatchFor.toLocation()
	}
	return spec
}

// Factory resolves feature-pack locations to directories under Root,
// reading each one's pack.yaml manifest.
type Factory struct {
	Root string

	// Progress is handed out by NewProgressTracker; a nil Progress yields
	// resolvers.NoopProgressTracker so callers that don't care about
	// progress reporting need not set it.
	Progress resolvers.ProgressTracker
}

var _ resolvers.LayoutFactory = (*Factory)(nil)

// NewFactory returns a Factory rooted at root with no progress reporting.
func NewFactory(root string) *Factory {
	return &Factory{Root: root}
}

// NewProgressTracker returns f.Progress, or a no-op tracker if unset.
func (f *Factory) NewProgressTracker() resolvers.ProgressTracker {
	if f.Progress == nil {
		return resolvers.NoopProgressTracker{}
	}
	return f.Progress
}

// ResolveFeaturePack reads fpl's manifest from <Root>/<universe>/<producer>/
// <channel>/<build>/pack.yaml. fpl is expected to already carry a concrete
// build; the layout builder resolves "latest" before calling this.
func (f *Factory) ResolveFeaturePack(fpl location.FeaturePackLocation, typ location.FeaturePackType) (resolvers.ResolvedFeaturePack, error) {
	if fpl.IsCoordinateForm() {
		return resolvers.ResolvedFeaturePack{}, fmt.Errorf("localfp: coordinate-form location %q cannot be resolved directly, it must be mapped to a universe/producer first", fpl.Coordinate)
	}
	dir := filepath.Join(f.Root, fpl.Universe, fpl.Producer, fpl.Channel, fpl.Build)
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return resolvers.ResolvedFeaturePack{}, fmt.Errorf("reading manifest for %s: %w", fpl, err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return resolvers.ResolvedFeaturePack{}, fmt.Errorf("parsing manifest for %s: %w", fpl, err)
	}
	return resolvers.ResolvedFeaturePack{ID: fpl, Spec: m.toSpec(), Dir: dir}, nil
}
