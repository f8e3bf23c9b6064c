// SPDX-License-Identifier: AGPL-3.0-or-later

// Package layout implements the core graph traversal: resolving feature
// pack versions against upstream catalogs, converging diamond
// dependencies, detecting channel/build conflicts, ordering feature packs
// for dependency-respecting materialisation, loading patches, and
// aggregating resources and plugins into a shared work area.
//
// F is a type parameter rather than a base class: Go has no generic
// interface methods, so resolvers.FeaturePackLayoutFactory[F] is applied
// by Layout itself to the resolvers.ResolvedFeaturePack its
// resolvers.LayoutFactory hands back — a capability looked up and
// invoked by the caller rather than a type hierarchy.
package layout

import (
	"sort"

	"packline/pkg/location"
	"packline/pkg/perr"
	"packline/pkg/provisioning"
	"packline/pkg/resolvers"

	"packline/internal/workarea"
)

// ConvergenceOption is the config option name selecting the diamond
// convergence policy ("FIRST_PROCESSED" or "FAIL").
const ConvergenceOption = "VERSION_CONVERGENCE"

const (
	convergenceFirstProcessed = "FIRST_PROCESSED"
	convergenceFail           = "FAIL"
)

// entry is one materialised feature pack: its resolved identity, parsed
// spec, current on-disk directory (which the patch applicator may
// redirect to a patched copy) and the caller's F value.
type entry[F any] struct {
	id   location.FeaturePackID
	spec resolvers.FeaturePackSpec
	dir  string
	typ  location.FeaturePackType
	val  F
}

// Layout is the provisioning engine's mutable core: the feature-pack
// graph for one ProvisioningConfig, the shared work area it has
// materialised into, and the bookkeeping needed to rebuild against a
// changed config without leaking the previous build's state.
type Layout[F any] struct {
	factory   resolvers.LayoutFactory
	fpFactory resolvers.FeaturePackLayoutFactory[F]
	universe  resolvers.UniverseResolver
	area      *workarea.Area
	progress  resolvers.ProgressTracker

	config provisioning.ProvisioningConfig

	featurePacks      map[location.ProducerSpec]*entry[F]
	ordered           []*entry[F]
	allPatches        map[location.FeaturePackID]*entry[F]
	fpPatches         map[location.FeaturePackID][]*entry[F]
	transitiveDeps    map[location.ProducerSpec]bool
	resolvedVersions  map[location.ProducerSpec]location.FeaturePackLocation
	coordinateAliases map[location.ProducerSpec]*entry[F]
	conflicts         map[location.ProducerSpec]map[location.FeaturePackID]bool
	pluginLocations   map[string]resolvers.PluginRef
	failOnConvergence bool
}

// New builds a fresh Layout from cfg: a new work area is created under
// baseDir and the initial build runs with cleanupTransitive enabled (an
// unreferenced transitive entry in a first build is dropped, not an
// error).
func New[F any](
	factory resolvers.LayoutFactory,
	fpFactory resolvers.FeaturePackLayoutFactory[F],
	universe resolvers.UniverseResolver,
	baseDir string,
	cfg provisioning.ProvisioningConfig,
) (*Layout[F], error) {
	area, err := workarea.New(baseDir)
	if err != nil {
		return nil, err
	}
	l := &Layout[F]{
		factory:   factory,
		fpFactory: fpFactory,
		universe:  universe,
		area:      area,
		progress:  factory.NewProgressTracker(),
	}
	if err := l.Rebuild(cfg, true); err != nil {
		area.Close()
		return nil, err
	}
	return l, nil
}

// Close releases this layout's reference to its work area. Double-close
// is a no-op; the directory is removed only when every reference
// (including transformed views) has closed.
func (l *Layout[F]) Close() error { return l.area.Close() }

// Config returns the layout's current provisioning configuration.
func (l *Layout[F]) Config() provisioning.ProvisioningConfig { return l.config }

// HasFeaturePacks reports whether the layout materialised any pack.
func (l *Layout[F]) HasFeaturePacks() bool { return len(l.ordered) > 0 }

// FeaturePack returns the materialised F for producer, if present.
func (l *Layout[F]) FeaturePack(producer location.ProducerSpec) (F, bool) {
	e, ok := l.featurePacks[producer]
	if !ok {
		var zero F
		return zero, false
	}
	return e.val, true
}

// OrderedFeaturePacks returns every materialised F in dependency order
// (a pack's non-patch prerequisites precede it).
func (l *Layout[F]) OrderedFeaturePacks() []F {
	out := make([]F, len(l.ordered))
	for i, e := range l.ordered {
		out[i] = e.val
	}
	return out
}

// Patches returns the patch FPIDs applied to fpid, in application order.
func (l *Layout[F]) Patches(fpid location.FeaturePackID) []location.FeaturePackID {
	stack := l.fpPatches[fpid]
	out := make([]location.FeaturePackID, len(stack))
	for i, e := range stack {
		out[i] = e.id
	}
	return out
}

// HasPlugins reports whether the work area aggregated any plugin artifact.
func (l *Layout[F]) HasPlugins() bool { return l.area.HasPlugins() }

// HasResources reports whether the work area aggregated any resource.
func (l *Layout[F]) HasResources() bool { return l.area.HasResources() }

// HasPatches reports whether any feature pack in this layout was patched.
func (l *Layout[F]) HasPatches() bool { return l.area.HasPatches() }

// PluginsDir returns the work area's aggregated plugins/ directory.
func (l *Layout[F]) PluginsDir() (string, error) { return l.area.PluginsDir() }

// Resource joins parts under the work area's aggregated resources/.
func (l *Layout[F]) Resource(parts ...string) string { return l.area.ResourcePath(parts...) }

// TmpPath joins parts under the work area's caller-visible scratch dir.
func (l *Layout[F]) TmpPath(parts ...string) (string, error) { return l.area.TmpPath(parts...) }

// NewStagedDir empties and returns the work area's staged output dir.
func (l *Layout[F]) NewStagedDir() (string, error) { return l.area.NewStagedDir() }

// ChannelFor returns the Channel serving fpl's producer/channel, for
// callers (the update-query API) that need to ask it for the latest
// build without duplicating the universe-resolver lookup.
func (l *Layout[F]) ChannelFor(fpl location.FeaturePackLocation) (resolvers.Channel, error) {
	return l.universe.GetChannel(fpl)
}

// ResolveLatest normalizes fpl against the universe resolver — resolving
// a channel-only or build-less location down to a concrete build — used
// by the mutation API to pre-resolve "latest" references before editing
// the config, ahead of any full rebuild.
func (l *Layout[F]) ResolveLatest(fpl location.FeaturePackLocation) (location.FeaturePackLocation, error) {
	return l.normalize(fpl)
}

// ResolveArchive resolves fpl's archive without constructing an F,
// giving the mutation API the parsed spec and FPID it needs to decide
// how to edit the config (patch vs. regular pack, promotion/demotion)
// without touching the caller's layout type.
func (l *Layout[F]) ResolveArchive(fpl location.FeaturePackLocation, typ location.FeaturePackType) (resolvers.ResolvedFeaturePack, error) {
	return l.factory.ResolveFeaturePack(fpl, typ)
}

// DependsOn reports whether the materialised pack for producer declares
// dep among its spec's transitive or direct dependencies. Used to find
// the earliest direct entry that actually depends on a producer being
// promoted from transitive to direct.
func (l *Layout[F]) DependsOn(producer, dep location.ProducerSpec) bool {
	e, ok := l.featurePacks[producer]
	if !ok {
		return false
	}
	for _, d := range e.spec.TransitiveDeps {
		if d.Location.ProducerSpec() == dep {
			return true
		}
	}
	for _, d := range e.spec.DirectDeps {
		if d.Location.ProducerSpec() == dep {
			return true
		}
	}
	return false
}

// PatchTarget returns the producer a loaded patch targets, if fpid names
// one currently applied somewhere in this layout.
func (l *Layout[F]) PatchTarget(fpid location.FeaturePackID) (location.ProducerSpec, bool) {
	for target, stack := range l.fpPatches {
		for _, e := range stack {
			if e.id == fpid {
				return target.ProducerSpec(), true
			}
		}
	}
	return location.ProducerSpec{}, false
}

// SetOptions replaces the layout's config options in place without
// retriggering a full rebuild — changing which options are set does not
// change the materialised feature-pack graph, only how the next rebuild
// interprets VERSION_CONVERGENCE and friends. Used by the options driver
// to write reconciled options back after a build.
func (l *Layout[F]) SetOptions(opts map[string]string) {
	b := provisioning.FromConfig(l.config).ClearOptions()
	for k, v := range opts {
		b.SetOption(k, v)
	}
	l.config = b.Build()
}

// Plugins returns every plugin declared by a feature pack materialised
// in this layout, keyed by nothing in particular — callers needing
// lookup should feed these into an options.PluginRegistry.
func (l *Layout[F]) Plugins() []resolvers.PluginRef {
	out := make([]resolvers.PluginRef, 0, len(l.pluginLocations))
	for _, ref := range l.pluginLocations {
		out = append(out, ref)
	}
	return out
}

// IsOptionSet reports whether a global option is set, and its value.
func (l *Layout[F]) IsOptionSet(name string) (string, bool) { return l.config.Option(name) }

// Options returns a copy of the layout's global options.
func (l *Layout[F]) Options() map[string]string { return l.config.Options() }

// layoutEntry is one dependency as seen by layout(): a location plus the
// patches attached to it when it comes from a ProvisioningConfig entry
// (always empty when it comes from a feature pack's own declared
// dependencies — only top-level config entries carry patch attachments).
// Per-pack options of a config entry are not carried here.
type layoutEntry struct {
	Location location.FeaturePackLocation
	Patches  []location.FeaturePackID
}

// layoutSource is the two-phase dependency list layout() walks: an
// unordered transitive set (addressed by producer, pin-checked against
// the branch and otherwise just registered as a scratch reference) and
// an ordered direct list (converged against anything already
// materialised). A top-level ProvisioningConfig and a single feature
// pack's FeaturePackSpec both present this same shape — a spec's own
// TransitiveDeps/DirectDeps split mirrors the config's, which is what
// lets one recursive layout() implementation serve both.
type layoutSource struct {
	Transitive []layoutEntry
	Direct     []layoutEntry
}

func sourceFromConfig(cfg provisioning.ProvisioningConfig) layoutSource {
	var src layoutSource
	for _, p := range cfg.SortedTransitiveProducers() {
		e, _ := cfg.FindTransitive(p)
		src.Transitive = append(src.Transitive, layoutEntry{Location: e.Location, Patches: e.Patches})
	}
	for _, e := range cfg.Direct() {
		src.Direct = append(src.Direct, layoutEntry{Location: e.Location, Patches: e.Patches})
	}
	return src
}

func sourceFromSpec(spec resolvers.FeaturePackSpec) layoutSource {
	var src layoutSource
	for _, d := range spec.TransitiveDeps {
		src.Transitive = append(src.Transitive, layoutEntry{Location: d.Location})
	}
	for _, d := range spec.DirectDeps {
		src.Direct = append(src.Direct, layoutEntry{Location: d.Location})
	}
	return src
}

// resetState clears every mutable field build() accumulates, leaving
// config and the work-area handle untouched. Called at the start of
// every Rebuild so a failed or repeat build never sees stale state.
func (l *Layout[F]) resetState() {
	l.featurePacks = map[location.ProducerSpec]*entry[F]{}
	l.ordered = nil
	l.allPatches = map[location.FeaturePackID]*entry[F]{}
	l.fpPatches = map[location.FeaturePackID][]*entry[F]{}
	l.transitiveDeps = map[location.ProducerSpec]bool{}
	l.resolvedVersions = map[location.ProducerSpec]location.FeaturePackLocation{}
	l.coordinateAliases = map[location.ProducerSpec]*entry[F]{}
	l.conflicts = map[location.ProducerSpec]map[location.FeaturePackID]bool{}
	l.pluginLocations = map[string]resolvers.PluginRef{}
}

// Rebuild clears all mutable layout state, resets the work area, and
// re-runs the traversal against cfg. Every mutation (install, uninstall,
// apply) ends by calling this against a config built from the edit.
func (l *Layout[F]) Rebuild(cfg provisioning.ProvisioningConfig, cleanupTransitive bool) error {
	l.config = cfg
	l.resetState()
	if err := l.area.Reset(); err != nil {
		return err
	}

	convergence, _ := cfg.Option(ConvergenceOption)
	switch convergence {
	case "", convergenceFirstProcessed:
		l.failOnConvergence = false
	case convergenceFail:
		l.failOnConvergence = true
	default:
		return perr.New(perr.InvalidConvergenceOption, "invalid "+ConvergenceOption+" value: "+convergence, convergence)
	}

	branch := map[location.ProducerSpec]location.FeaturePackLocation{}
	if err := l.layout(sourceFromConfig(cfg), branch, location.DirectDep); err != nil {
		return err
	}
	if err := l.postBuild(cleanupTransitive); err != nil {
		return err
	}
	if l.progress != nil {
		l.progress.OnComplete()
	}
	return nil
}

// layout is the recursive DFS traversal over a dependency source: first
// the source's transitive entries (pin-or-conflict, no materialisation),
// then its direct entries (resolve-or-converge, materialise, enqueue),
// then a post-queue pass that recurses into each newly materialised
// pack's own declared dependencies, aggregates its resources/plugins,
// and appends it to the dependency-ordered sequence. Every producer this
// invocation pins in branch is unpinned before it returns, scoping the
// pin to this DFS subtree.
func (l *Layout[F]) layout(src layoutSource, branch map[location.ProducerSpec]location.FeaturePackLocation, typ location.FeaturePackType) error {
	var pinnedHere []location.ProducerSpec
	defer func() {
		for _, p := range pinnedHere {
			delete(branch, p)
		}
	}()

	transitive := append([]layoutEntry(nil), src.Transitive...)
	sort.Slice(transitive, func(i, j int) bool {
		pi, pj := transitive[i].Location.ProducerSpec(), transitive[j].Location.ProducerSpec()
		if pi.Universe != pj.Universe {
			return pi.Universe < pj.Universe
		}
		return pi.Producer < pj.Producer
	})

	for _, te := range transitive {
		for _, patch := range te.Patches {
			if err := l.loadPatch(patch); err != nil {
				return err
			}
		}

		producer := te.Location.ProducerSpec()
		if pin, ok := branch[producer]; ok {
			if pin.HasChannel() && te.Location.HasChannel() && !pin.SameChannel(te.Location) {
				l.recordConflict(producer, pin, te.Location)
				continue
			}
		}

		effective := te.Location
		if effective.IsCoordinateForm() {
			resolved, err := l.resolveCoordinateID(effective)
			if err != nil {
				return err
			}
			producer = resolved.ProducerSpec()
			effective = resolved
			l.resolvedVersions[producer] = resolved
		}

		l.transitiveDeps[producer] = true
		if _, already := branch[producer]; !already {
			branch[producer] = effective
			pinnedHere = append(pinnedHere, producer)
		}
	}

	var postQueue []*entry[F]
	for _, de := range src.Direct {
		for _, patch := range de.Patches {
			if err := l.loadPatch(patch); err != nil {
				return err
			}
		}

		rawProducer := de.Location.ProducerSpec()
		pin, hasPin := branch[rawProducer]
		effective, err := l.resolveVersion(de.Location, rawProducer, pin, hasPin)
		if err != nil {
			return err
		}

		if !effective.IsCoordinateForm() {
			if existing, ok := l.featurePacks[effective.ProducerSpec()]; ok {
				l.converge(effective.ProducerSpec(), pin, hasPin, effective, existing.id)
				continue
			}
		}

		resolved, err := l.resolveFeaturePack(effective, typ)
		if err != nil {
			return err
		}
		finalProducer := resolved.id.ProducerSpec()

		if de.Location.IsCoordinateForm() {
			l.coordinateAliases[rawProducer] = resolved
			if pin2, ok2 := branch[finalProducer]; ok2 {
				if existing2, ok3 := l.featurePacks[finalProducer]; ok3 {
					l.converge(finalProducer, pin2, ok2, resolved.id, existing2.id)
					continue
				}
				reResolved, verr := l.resolveVersion(resolved.id, finalProducer, pin2, ok2)
				if verr != nil {
					return verr
				}
				if reResolved != resolved.id {
					resolved, err = l.resolveFeaturePack(reResolved, typ)
					if err != nil {
						return err
					}
					finalProducer = resolved.id.ProducerSpec()
				}
			}
		}

		l.featurePacks[finalProducer] = resolved
		postQueue = append(postQueue, resolved)

		if _, already := branch[finalProducer]; !already {
			branch[finalProducer] = resolved.id
			pinnedHere = append(pinnedHere, finalProducer)
		}
	}

	for _, e := range postQueue {
		if err := l.layout(sourceFromSpec(e.spec), branch, location.TransitiveDep); err != nil {
			return err
		}
		for _, pr := range e.spec.Plugins {
			l.pluginLocations[pr.ID] = pr
		}
		if err := l.area.CopyFeaturePackContent(e.dir); err != nil {
			return err
		}
		l.ordered = append(l.ordered, e)
		if l.progress != nil {
			l.progress.OnFeaturePack(e.id.ProducerSpec())
		}
	}

	return nil
}

// resolveVersion computes the FPL a direct entry should actually use,
// given the branch's pin (if any) for its producer.
func (l *Layout[F]) resolveVersion(fpl location.FeaturePackLocation, producer location.ProducerSpec, pin location.FeaturePackLocation, hasPin bool) (location.FeaturePackLocation, error) {
	if !hasPin {
		return l.normalize(fpl)
	}
	if !pin.HasChannel() || pin.SameChannel(fpl) {
		if !pin.HasBuild() {
			return l.normalize(fpl)
		}
		return fpl.WithBuild(pin.Build), nil
	}
	l.recordConflict(producer, pin, fpl)
	return pin, nil
}

// normalize resolves fpl into a concrete build, consulting the universe
// resolver for a default channel or latest build as needed. Coordinate
// form is returned unchanged; resolveFeaturePack/resolveCoordinateID are
// what translate a coordinate into a real location.
func (l *Layout[F]) normalize(fpl location.FeaturePackLocation) (location.FeaturePackLocation, error) {
	if fpl.IsCoordinateForm() {
		return fpl, nil
	}
	if fpl.HasChannel() && fpl.HasBuild() {
		return fpl, nil
	}
	if fpl.HasChannel() {
		ch, err := l.universe.GetChannel(fpl)
		if err != nil {
			return fpl, err
		}
		build, err := ch.GetLatestBuild(fpl)
		if err != nil {
			return fpl, err
		}
		resolved := fpl.WithBuild(build)
		l.resolvedVersions[fpl.ProducerSpec()] = resolved
		return resolved, nil
	}
	def, err := l.universe.DefaultChannelName(fpl.ProducerSpec())
	if err != nil {
		return fpl, err
	}
	return l.normalize(fpl.WithChannel(def))
}

// converge decides whether two paths reaching the same producer can
// coexist: a no-op if the branch already committed to a build, or if the
// two locations already agree; a conflict if their channels differ or
// (under FAIL) if their builds differ; otherwise the already-registered
// build silently wins (first-processed).
func (l *Layout[F]) converge(producer location.ProducerSpec, pin location.FeaturePackLocation, hasPin bool, entryFpid, existingFpid location.FeaturePackID) {
	if hasPin && pin.HasBuild() {
		return
	}
	if entryFpid == existingFpid {
		return
	}
	if !entryFpid.SameChannel(existingFpid) {
		l.recordConflict(producer, entryFpid, existingFpid)
		return
	}
	if l.failOnConvergence {
		l.recordConflict(producer, entryFpid, existingFpid)
	}
}

func (l *Layout[F]) recordConflict(producer location.ProducerSpec, locs ...location.FeaturePackLocation) {
	set := l.conflicts[producer]
	if set == nil {
		set = map[location.FeaturePackID]bool{}
		l.conflicts[producer] = set
	}
	for _, loc := range locs {
		set[loc] = true
	}
}

// resolveCoordinateID resolves a coordinate-form location down to its
// concrete FPID, materialising and caching the full entry under the
// coordinate alias so the same coordinate is never sent to the factory
// twice within a build.
func (l *Layout[F]) resolveCoordinateID(loc location.FeaturePackLocation) (location.FeaturePackID, error) {
	if alias, ok := l.coordinateAliases[loc.ProducerSpec()]; ok {
		return alias.id, nil
	}
	resolved, err := l.factory.ResolveFeaturePack(loc, location.TransitiveDep)
	if err != nil {
		return location.FeaturePackID{}, err
	}
	val, err := l.fpFactory.New(resolved.ID, resolved.Spec, resolved.Dir, location.TransitiveDep)
	if err != nil {
		return location.FeaturePackID{}, err
	}
	l.coordinateAliases[loc.ProducerSpec()] = &entry[F]{id: resolved.ID, spec: resolved.Spec, dir: resolved.Dir, typ: location.TransitiveDep, val: val}
	return resolved.ID, nil
}

// resolveFeaturePack resolves loc into a fully materialised entry: the
// archive via the LayoutFactory, its spec's coordinate-form dependencies
// translated to full locations, and the caller's F constructed via
// FeaturePackLayoutFactory.
func (l *Layout[F]) resolveFeaturePack(loc location.FeaturePackLocation, typ location.FeaturePackType) (*entry[F], error) {
	if alias, ok := l.coordinateAliases[loc.ProducerSpec()]; ok && loc.IsCoordinateForm() {
		return alias, nil
	}

	resolved, err := l.factory.ResolveFeaturePack(loc, typ)
	if err != nil {
		return nil, err
	}
	spec, err := l.rebuildSpecCoordinates(resolved.Spec)
	if err != nil {
		return nil, err
	}
	val, err := l.fpFactory.New(resolved.ID, spec, resolved.Dir, typ)
	if err != nil {
		return nil, err
	}
	return &entry[F]{id: resolved.ID, spec: spec, dir: resolved.Dir, typ: typ, val: val}, nil
}

// rebuildSpecCoordinates walks spec's transitive deps then its direct
// deps and replaces any coordinate-form dependency with its resolved
// location, preserving declaration order exactly.
func (l *Layout[F]) rebuildSpecCoordinates(spec resolvers.FeaturePackSpec) (resolvers.FeaturePackSpec, error) {
	out := spec
	for i, d := range out.TransitiveDeps {
		if !d.Location.IsCoordinateForm() {
			continue
		}
		id, err := l.resolveCoordinateID(d.Location)
		if err != nil {
			return spec, err
		}
		out = out.WithDependency(true, i, id)
	}
	for i, d := range out.DirectDeps {
		if !d.Location.IsCoordinateForm() {
			continue
		}
		id, err := l.resolveCoordinateID(d.Location)
		if err != nil {
			return spec, err
		}
		out = out.WithDependency(false, i, id)
	}
	return out, nil
}

// loadPatch resolves fpid as a patch, verifies it declares itself one,
// recursively loads whatever patches it itself depends on, and appends
// it to the patch stack for its target. Loading the same FPID twice is a
// no-op rather than an error: the same patch FPID may be attached to
// several config entries.
func (l *Layout[F]) loadPatch(fpid location.FeaturePackID) error {
	if _, ok := l.allPatches[fpid]; ok {
		return nil
	}

	resolved, err := l.factory.ResolveFeaturePack(fpid, location.Patch)
	if err != nil {
		return err
	}
	if !resolved.Spec.IsPatch {
		return perr.New(perr.PatchNotApplicable, "not a patch: "+fpid.String(), fpid)
	}
	val, err := l.fpFactory.New(resolved.ID, resolved.Spec, resolved.Dir, location.Patch)
	if err != nil {
		return err
	}
	e := &entry[F]{id: resolved.ID, spec: resolved.Spec, dir: resolved.Dir, typ: location.Patch, val: val}
	l.allPatches[fpid] = e

	for _, d := range append(append([]resolvers.Dependency(nil), resolved.Spec.TransitiveDeps...), resolved.Spec.DirectDeps...) {
		depID, err := l.normalize(d.Location)
		if err != nil {
			return err
		}
		if err := l.loadPatch(depID); err != nil {
			return err
		}
	}

	l.fpPatches[resolved.Spec.PatchFor] = append(l.fpPatches[resolved.Spec.PatchFor], e)
	return nil
}

// postBuild finishes a traversal: fail on accumulated conflicts, fail or drop
// orphaned transitive references, pin resolved "latest" versions back
// into the config, apply patches, and materialise the plugin classpath.
func (l *Layout[F]) postBuild(cleanupTransitive bool) error {
	if len(l.conflicts) > 0 {
		return perr.New(perr.VersionConflict, "version convergence failed", l.conflictsSnapshot())
	}

	builder := provisioning.FromConfig(l.config)
	var orphaned []location.ProducerSpec
	for producer := range l.transitiveDeps {
		if _, ok := l.featurePacks[producer]; ok {
			continue
		}
		if cleanupTransitive {
			if _, wasTransitive := l.config.FindTransitive(producer); wasTransitive {
				builder.RemoveTransitive(producer)
			}
			continue
		}
		orphaned = append(orphaned, producer)
	}
	if len(orphaned) > 0 {
		sort.Slice(orphaned, func(i, j int) bool {
			if orphaned[i].Universe != orphaned[j].Universe {
				return orphaned[i].Universe < orphaned[j].Universe
			}
			return orphaned[i].Producer < orphaned[j].Producer
		})
		return perr.New(perr.TransitiveDependencyNotFound, "transitive dependency not found", orphaned)
	}

	for producer, fpl := range l.resolvedVersions {
		if _, isDirect := l.config.FindDirect(producer); isDirect {
			continue
		}
		existing, hasTransitive := builder.GetTransitive(producer)
		if hasTransitive {
			existing.Location = fpl
			builder.SetTransitive(existing)
		} else {
			builder.SetTransitive(provisioning.FeaturePackConfig{Location: fpl, Transitive: true})
		}
	}
	l.config = builder.Build()

	if err := l.applyPatches(); err != nil {
		return err
	}
	return l.materialisePlugins()
}

// conflictsSnapshot converts the internal conflict sets into the plain
// map[ProducerSpec][]FeaturePackID shape the VersionConflict error
// carries, sorted for deterministic error messages.
func (l *Layout[F]) conflictsSnapshot() map[location.ProducerSpec][]location.FeaturePackID {
	out := make(map[location.ProducerSpec][]location.FeaturePackID, len(l.conflicts))
	for producer, set := range l.conflicts {
		ids := make([]location.FeaturePackID, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
		out[producer] = ids
	}
	return out
}

// materialisePlugins resolves every plugin artifact accumulated during
// traversal and copies it into the work area's plugins/ aggregate.
func (l *Layout[F]) materialisePlugins() error {
	for _, ref := range l.pluginLocations {
		resolver, err := l.universe.GetArtifactResolver(ref.Artifact.RepoID)
		if err != nil {
			return err
		}
		path, err := resolver.Resolve(ref.Artifact)
		if err != nil {
			return err
		}
		if _, err := l.area.AddPluginArtifact(path); err != nil {
			return err
		}
	}
	return nil
}
