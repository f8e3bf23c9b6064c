// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mutate implements the provisioning engine's mutation API:
// install, uninstall, apply-plan, and update queries, each of which
// edits a ProvisioningConfig via a Builder and rebuilds the layout
// against the result, then reconciles options against the rebuilt
// graph's discovered plugins.
package mutate

import (
	"errors"

	"packline/internal/layout"
	"packline/internal/options"
	"packline/pkg/location"
	"packline/pkg/perr"
	"packline/pkg/provisioning"
	"packline/pkg/resolvers"
)

// Mutator wraps a Layout with the config-edit-then-rebuild mutation
// operations and the options/plugin reconciliation that follows every
// one of them.
type Mutator[F any] struct {
	l                    *layout.Layout[F]
	plugins              *options.PluginRegistry
	extraOptions         map[string]string
	cleanupConfigOptions bool
	effective            map[string]string
}

// New wraps an already-built Layout and runs the initial options
// reconciliation against its discovered plugins.
func New[F any](l *layout.Layout[F], extraOptions map[string]string, cleanupConfigOptions bool) (*Mutator[F], error) {
	m := &Mutator[F]{
		l:                    l,
		plugins:              options.NewPluginRegistry(),
		extraOptions:         cloneStringMap(extraOptions),
		cleanupConfigOptions: cleanupConfigOptions,
	}
	if err := m.reconcileOptions(); err != nil {
		return nil, err
	}
	return m, nil
}

// Layout returns the underlying layout, for inspection operations the
// mutation API does not itself wrap (getFeaturePack, getOrderedFeaturePacks, …).
func (m *Mutator[F]) Layout() *layout.Layout[F] { return m.l }

// EffectiveOptions returns the options this run is actually operating
// under, after reconciling config options, overrides and plugin
// declarations.
func (m *Mutator[F]) EffectiveOptions() map[string]string { return m.effective }

// VisitPlugins invokes visit for every discovered plugin of pluginType
// (every plugin if pluginType is empty), with the registry's plugins
// root temporarily pointed at the work area's aggregated plugins/
// directory. The prior root is restored on every exit path.
func (m *Mutator[F]) VisitPlugins(pluginType string, visit func(resolvers.PluginRef)) error {
	dir, err := m.l.PluginsDir()
	if err != nil {
		return err
	}
	return m.plugins.WithPluginsRoot(dir, func() error {
		m.plugins.VisitByType(pluginType, visit)
		return nil
	})
}

// Install pre-resolves a build-less location, routes a patch to its
// target's config entry, and otherwise adds, updates, promotes or
// demotes the producer's entry as appropriate.
func (m *Mutator[F]) Install(fp provisioning.FeaturePackConfig, extra map[string]string) error {
	builder := provisioning.FromConfig(m.l.Config())
	if err := m.applyInstall(builder, fp); err != nil {
		return err
	}
	return m.rebuild(builder, extra)
}

// Uninstall detaches fpid from its target's entry (a patch) or removes
// its producer's direct entry (a feature pack) from the config, and
// rebuilds.
func (m *Mutator[F]) Uninstall(fpid location.FeaturePackID, extra map[string]string) error {
	builder := provisioning.FromConfig(m.l.Config())
	if err := m.applyUninstall(builder, fpid); err != nil {
		return err
	}
	return m.rebuild(builder, extra)
}

// Apply folds updates first (an update naming a producer not currently
// in the config becomes a new transitive entry), then installs, then
// uninstalls, into one config edit before a single rebuild.
func (m *Mutator[F]) Apply(plan provisioning.ProvisioningPlan, extra map[string]string) error {
	builder := provisioning.FromConfig(m.l.Config())

	for _, upd := range plan.Updates {
		if upd.IsEmpty() {
			continue
		}
		if idx := builder.IndexOfDirect(upd.Producer); idx >= 0 {
			existing, _ := builder.DirectAt(idx)
			if existing.Location != upd.InstalledLocation {
				return perr.New(perr.UpdateNotInstalled, "installed location mismatch for "+upd.Producer.String(), upd)
			}
			builder.ReplaceDirect(idx, withUpdate(existing, upd))
			continue
		}
		if existing, ok := builder.GetTransitive(upd.Producer); ok {
			if existing.Location != upd.InstalledLocation {
				return perr.New(perr.UpdateNotInstalled, "installed location mismatch for "+upd.Producer.String(), upd)
			}
			builder.SetTransitive(withUpdate(existing, upd))
			continue
		}
		builder.SetTransitive(provisioning.FeaturePackConfig{
			Location:   upd.NewLocation,
			Transitive: true,
			Patches:    append([]location.FeaturePackID(nil), upd.NewPatches...),
		})
	}

	for _, fp := range plan.Installs {
		if err := m.applyInstall(builder, fp); err != nil {
			return err
		}
	}
	for _, fpid := range plan.Uninstalls {
		if err := m.applyUninstall(builder, fpid); err != nil {
			return err
		}
	}

	return m.rebuild(builder, extra)
}

func withUpdate(existing provisioning.FeaturePackConfig, upd provisioning.FeaturePackUpdatePlan) provisioning.FeaturePackConfig {
	out := existing
	out.Location = upd.NewLocation
	for _, p := range upd.NewPatches {
		out = out.WithPatch(p)
	}
	return out
}

// applyInstall edits builder in place to add or update fp's entry.
func (m *Mutator[F]) applyInstall(builder *provisioning.Builder, fp provisioning.FeaturePackConfig) error {
	loc := fp.Location
	if !loc.IsCoordinateForm() && !loc.HasBuild() {
		resolved, err := m.l.ResolveLatest(loc)
		if err != nil {
			return err
		}
		loc = resolved
	}

	archive, err := m.l.ResolveArchive(loc, location.DirectDep)
	if err != nil {
		return err
	}

	if archive.Spec.IsPatch {
		return m.applyPatchInstall(builder, archive)
	}

	producer := loc.ProducerSpec()
	if loc.IsCoordinateForm() {
		producer = archive.ID.ProducerSpec()
		loc = archive.ID
	}
	fp.Location = loc

	if idx := builder.IndexOfDirect(producer); idx >= 0 {
		if fp.Transitive {
			builder.RemoveDirectAt(idx)
			fp.Transitive = true
			builder.SetTransitive(fp)
			return nil
		}
		fp.Transitive = false
		builder.ReplaceDirect(idx, fp)
		return nil
	}

	if _, ok := builder.GetTransitive(producer); ok {
		if fp.Transitive {
			builder.SetTransitive(fp)
			return nil
		}
		insertAt := m.earliestDependentIndex(builder, producer)
		builder.RemoveTransitive(producer)
		fp.Transitive = false
		builder.InsertDirect(insertAt, fp)
		return nil
	}

	if fp.Transitive {
		builder.SetTransitive(fp)
	} else {
		fp.Transitive = false
		builder.AddDirect(fp)
	}
	return nil
}

func (m *Mutator[F]) applyPatchInstall(builder *provisioning.Builder, archive resolvers.ResolvedFeaturePack) error {
	target := archive.Spec.PatchFor.ProducerSpec()

	if idx := builder.IndexOfDirect(target); idx >= 0 {
		existing, _ := builder.DirectAt(idx)
		if existing.HasPatch(archive.ID) {
			return perr.New(perr.PatchAlreadyApplied, "patch already applied: "+archive.ID.String(), archive.ID)
		}
		builder.ReplaceDirect(idx, existing.WithPatch(archive.ID))
		return nil
	}
	if existing, ok := builder.GetTransitive(target); ok {
		if existing.HasPatch(archive.ID) {
			return perr.New(perr.PatchAlreadyApplied, "patch already applied: "+archive.ID.String(), archive.ID)
		}
		builder.SetTransitive(existing.WithPatch(archive.ID))
		return nil
	}
	return perr.New(perr.PatchNotApplicable, "patch target not installed: "+target.String(), target)
}

// earliestDependentIndex finds the earliest direct entry whose
// materialised pack actually depends on producer, so a promoted
// transitive entry is inserted before its dependent rather than after.
// Falls back to the end of the direct list if none do.
func (m *Mutator[F]) earliestDependentIndex(builder *provisioning.Builder, producer location.ProducerSpec) int {
	best := builder.DirectLen()
	for i := 0; i < builder.DirectLen(); i++ {
		e, _ := builder.DirectAt(i)
		if i < best && m.l.DependsOn(e.Producer(), producer) {
			best = i
		}
	}
	return best
}

func (m *Mutator[F]) applyUninstall(builder *provisioning.Builder, fpid location.FeaturePackID) error {
	if target, ok := m.l.PatchTarget(fpid); ok {
		if idx := builder.IndexOfDirect(target); idx >= 0 {
			existing, _ := builder.DirectAt(idx)
			builder.ReplaceDirect(idx, existing.WithoutPatch(fpid))
			return nil
		}
		if existing, ok := builder.GetTransitive(target); ok {
			builder.SetTransitive(existing.WithoutPatch(fpid))
			return nil
		}
		return nil
	}

	producer := fpid.ProducerSpec()
	idx := builder.IndexOfDirect(producer)
	if idx < 0 {
		return perr.New(perr.UpdateNotInstalled, "not installed: "+producer.String(), producer)
	}
	existing, _ := builder.DirectAt(idx)
	if fpid.HasBuild() && existing.Location.Build != fpid.Build {
		return perr.New(perr.UpdateNotInstalled, "installed build does not match "+fpid.String(), existing.Location)
	}
	builder.RemoveDirectAt(idx)
	if builder.DirectLen() == 0 {
		builder.ClearOptions()
	}
	return nil
}

// rebuild finishes every mutation: build the edited config, rebuild the
// layout against it, then re-run option/plugin reconciliation.
func (m *Mutator[F]) rebuild(builder *provisioning.Builder, extra map[string]string) error {
	if extra != nil {
		m.extraOptions = cloneStringMap(extra)
	}
	if err := m.l.Rebuild(builder.Build(), true); err != nil {
		return err
	}
	return m.reconcileOptions()
}

func (m *Mutator[F]) reconcileOptions() error {
	m.plugins.Reset()
	for _, p := range m.l.Plugins() {
		m.plugins.Register(p)
	}
	res := options.Reconcile(options.Input{
		ConfigOptions:        m.l.Options(),
		ExtraOptions:         m.extraOptions,
		Recognised:           m.plugins.RecognisedOptions(),
		CleanupConfigOptions: m.cleanupConfigOptions,
	})
	if len(res.Errors) > 0 {
		return errors.Join(res.Errors...)
	}
	m.effective = res.Effective
	m.l.SetOptions(res.NewConfigOptions)
	return nil
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
