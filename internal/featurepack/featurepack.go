// SPDX-License-Identifier: AGPL-3.0-or-later

// Package featurepack is cmd/packline's chosen F: the concrete layout
// value the generic engine constructs for every materialised feature pack.
// It exists purely to give the CLI something to print; library callers of
// internal/layout are free to parameterise Layout on any type they like.
package featurepack

import (
	"packline/pkg/location"
	"packline/pkg/resolvers"
)

// FeaturePack is one materialised feature pack as the CLI sees it.
type FeaturePack struct {
	ID   location.FeaturePackID
	Spec resolvers.FeaturePackSpec
	Dir  string
	Typ  location.FeaturePackType
}

// Factory adapts the package-level constructor to resolvers.FeaturePackLayoutFactory.
type Factory struct{}

var _ resolvers.FeaturePackLayoutFactory[*FeaturePack] = Factory{}

// New constructs a FeaturePack value. It never fails; any error in making
// F useful would have to come from I/O the layout builder has already done.
func (Factory) New(id location.FeaturePackID, spec resolvers.FeaturePackSpec, dir string, typ location.FeaturePackType) (*FeaturePack, error) {
	return &FeaturePack{ID: id, Spec: spec, Dir: dir, Typ: typ}, nil
}
