// SPDX-License-Identifier: AGPL-3.0-or-later

package provisioning

import "packline/pkg/location"

// FeaturePackUpdatePlan describes a proposed change for a single producer:
// the installed location, the proposed new location (equal to Installed
// when nothing changes), any new patches to add, and whether the producer
// is currently a transitive entry.
type FeaturePackUpdatePlan struct {
	Producer          location.ProducerSpec
	InstalledLocation location.FeaturePackLocation
	NewLocation       location.FeaturePackLocation
	NewPatches        []location.FeaturePackID
	Transitive        bool
}

// IsEmpty reports whether this update proposes no change: the new
// location equals the installed one and there are no new patches.
func (p FeaturePackUpdatePlan) IsEmpty() bool {
	return p.NewLocation == p.InstalledLocation && len(p.NewPatches) == 0
}

// ProvisioningPlan collects installs, uninstalls and per-producer update
// plans. Any collection may be empty.
type ProvisioningPlan struct {
	Installs   []FeaturePackConfig
	Uninstalls []location.FeaturePackID
	Updates    []FeaturePackUpdatePlan
}

// IsEmpty reports whether the plan has nothing to do: no installs, no
// uninstalls, and every update plan is itself empty.
func (p ProvisioningPlan) IsEmpty() bool {
	if len(p.Installs) != 0 || len(p.Uninstalls) != 0 {
		return false
	}
	for _, u := range p.Updates {
		if !u.IsEmpty() {
			return false
		}
	}
	return true
}

// NonEmptyUpdates returns only the updates that propose an actual change.
func (p ProvisioningPlan) NonEmptyUpdates() []FeaturePackUpdatePlan {
	out := make([]FeaturePackUpdatePlan, 0, len(p.Updates))
	for _, u := range p.Updates {
		if !u.IsEmpty() {
			out = append(out, u)
		}
	}
	return out
}
