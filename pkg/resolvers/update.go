// SPDX-License-Identifier: AGPL-3.0-or-later

package resolvers

import (
	"packline/pkg/location"
	"packline/pkg/provisioning"
)

// UpdateRequest is what getUpdates asks a Channel to evaluate for one
// installed producer.
type UpdateRequest struct {
	Producer   location.ProducerSpec
	Installed  location.FeaturePackLocation
	Transitive bool
}

// DefaultUpdatePlan implements the default update-plan behavior: if the
// channel's latest build differs from the installed build, propose
// replacing the build in the new location; always return a (possibly
// empty) plan, never an error for "no update".
func DefaultUpdatePlan(ch Channel, req UpdateRequest) (provisioning.FeaturePackUpdatePlan, error) {
	latest, err := ch.GetLatestBuild(req.Installed)
	if err != nil {
		return provisioning.FeaturePackUpdatePlan{}, err
	}

	plan := provisioning.FeaturePackUpdatePlan{
		Producer:          req.Producer,
		InstalledLocation: req.Installed,
		NewLocation:       req.Installed,
		Transitive:        req.Transitive,
	}
	if latest != req.Installed.Build {
		plan.NewLocation = req.Installed.WithBuild(latest)
	}
	return plan, nil
}
