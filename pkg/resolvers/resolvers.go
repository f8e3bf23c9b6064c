// SPDX-License-Identifier: AGPL-3.0-or-later

// Package resolvers defines the boundary interfaces the layout builder
// consumes: universes, channels, artifact resolvers and the factory that
// turns a resolved archive into a caller-chosen feature-pack layout type.
// Concrete implementations (network fetch, archive extraction) are a
// deliberately external concern; pkg/catalog ships one reference
// implementation for tests and local demos.
package resolvers

import "packline/pkg/location"

// Dependency is one feature-pack dependency declared in a FeaturePackSpec,
// possibly still in coordinate form.
type Dependency struct {
	Location location.FeaturePackLocation
}

// ArtifactLocation identifies a plugin artifact to resolve via an
// ArtifactResolver: a repository id plus an opaque coordinate within it.
type ArtifactLocation struct {
	RepoID     string
	Coordinate string
}

// PluginOption is one option a plugin declares it understands, used by
// the options driver (internal/options) to build its recognised-option
// set and decide whether an unset option is an error.
type PluginOption struct {
	Name       string
	Required   bool
	Persistent bool
}

// PluginRef is one plugin declared by a feature-pack spec.
type PluginRef struct {
	ID       string
	Type     string
	Artifact ArtifactLocation
	Options  []PluginOption
}

// FeaturePackSpec is the parsed metadata of a feature-pack archive: its
// declared dependencies (split transitive-then-direct, matching the order
// resolveFeaturePack must walk them in), declared plugins, patch-target
// (if this spec is a patch) and default packages.
type FeaturePackSpec struct {
	TransitiveDeps  []Dependency
	DirectDeps      []Dependency
	Plugins         []PluginRef
	IsPatch         bool
	PatchFor        location.FeaturePackID
	DefaultPackages []string
}

// WithDependency returns a copy of spec with the dependency at (transitive
// bool, index) replaced by resolved — used by resolveFeaturePack to
// rebuild a spec when a coordinate-form dependency resolves to a full
// location, preserving declaration order exactly.
func (spec FeaturePackSpec) WithDependency(transitive bool, index int, resolved location.FeaturePackLocation) FeaturePackSpec {
	out := spec
	if transitive {
		out.TransitiveDeps = append([]Dependency(nil), spec.TransitiveDeps...)
		out.TransitiveDeps[index] = Dependency{Location: resolved}
	} else {
		out.DirectDeps = append([]Dependency(nil), spec.DirectDeps...)
		out.DirectDeps[index] = Dependency{Location: resolved}
	}
	return out
}

// ResolvedFeaturePack is what a LayoutFactory hands back for a location:
// the concrete FPID it resolved to, the parsed spec, and the directory
// the archive was extracted/mounted into.
type ResolvedFeaturePack struct {
	ID   location.FeaturePackID
	Spec FeaturePackSpec
	Dir  string
}

// Channel is a named series of builds within a producer.
type Channel interface {
	Name() string
	GetLatestBuild(fpl location.FeaturePackLocation) (string, error)
	Resolve(fpl location.FeaturePackLocation) (string, error)
	IsResolved(fpl location.FeaturePackLocation) (bool, error)
}

// UniverseResolver answers "what is the latest build of producer P on
// channel C" and related catalog questions. It never interprets archive
// content; that is LayoutFactory's job.
type UniverseResolver interface {
	DefaultChannelName(producer location.ProducerSpec) (string, error)
	GetChannel(fpl location.FeaturePackLocation) (Channel, error)
	GetArtifactResolver(repoID string) (ArtifactResolver, error)
}

// ArtifactResolver resolves a plugin artifact location to a local path.
type ArtifactResolver interface {
	Resolve(loc ArtifactLocation) (string, error)
}

// ProgressTracker receives synchronous, non-blocking progress
// notifications between unit-of-work boundaries (per-producer or per-F).
type ProgressTracker interface {
	OnFeaturePack(producer location.ProducerSpec)
	OnComplete()
}

// NoopProgressTracker discards all notifications.
type NoopProgressTracker struct{}

func (NoopProgressTracker) OnFeaturePack(location.ProducerSpec) {}
func (NoopProgressTracker) OnComplete()                         {}

// LayoutFactory resolves feature-pack archives into their parsed spec and
// on-disk directory, and hands out progress trackers. It does not
// construct the caller's F type directly — Go has no generic interface
// methods, so FeaturePackLayoutFactory[F] (below) is applied by the
// generic layout builder itself to the ResolvedFeaturePack this returns.
type LayoutFactory interface {
	ResolveFeaturePack(fpl location.FeaturePackLocation, typ location.FeaturePackType) (ResolvedFeaturePack, error)
	NewProgressTracker() ProgressTracker
}

// FeaturePackLayoutFactory constructs a caller-chosen F from a resolved
// archive. This is a factory capability in place of a type hierarchy:
// F is a type parameter of the layout, not a base class.
type FeaturePackLayoutFactory[F any] interface {
	New(id location.FeaturePackID, spec FeaturePackSpec, dir string, typ location.FeaturePackType) (F, error)
}

// FeaturePackLayoutFactoryFunc adapts a plain function to
// FeaturePackLayoutFactory.
type FeaturePackLayoutFactoryFunc[F any] func(id location.FeaturePackID, spec FeaturePackSpec, dir string, typ location.FeaturePackType) (F, error)

func (f FeaturePackLayoutFactoryFunc[F]) New(id location.FeaturePackID, spec FeaturePackSpec, dir string, typ location.FeaturePackType) (F, error) {
	return f(id, spec, dir, typ)
}
