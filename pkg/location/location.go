// SPDX-License-Identifier: AGPL-3.0-or-later

// Package location defines the immutable identifiers used throughout the
// provisioning engine: universes, producers, channels, builds and the
// feature-pack locations built from them.
package location

import (
	"fmt"
	"strings"
)

// ProducerSpec identifies a feature-pack stream independent of version.
// It is the key used for installed-set membership.
type ProducerSpec struct {
	Universe string
	Producer string
}

func (p ProducerSpec) String() string {
	return fmt.Sprintf("%s:%s", p.Universe, p.Producer)
}

// FeaturePackLocation (FPL) identifies a feature pack, possibly without a
// concrete build ("latest"), or in coordinate form (an opaque artifact
// coordinate that has not yet been normalized).
//
// Equality is structural. Channel participates in conflict detection but
// not in installed-set membership, which is keyed by ProducerSpec alone.
type FeaturePackLocation struct {
	Universe  string
	Producer  string
	Channel   string
	Frequency string
	Build     string

	// Coordinate, when non-empty, marks this location as coordinate-form:
	// an opaque artifact coordinate (e.g. "group:artifact:version") that
	// has not yet been resolved into a full (universe, producer, channel,
	// build) location.
	Coordinate string
}

// FeaturePackID (FPID) is an FPL with a concrete, non-empty Build. The
// engine never constructs one except through resolution; nothing here
// forbids an empty Build beyond convention — an FPID is simply an FPL
// that is expected to carry a build.
type FeaturePackID = FeaturePackLocation

// IsCoordinateForm reports whether fpl carries only an opaque coordinate.
func (fpl FeaturePackLocation) IsCoordinateForm() bool {
	return fpl.Coordinate != ""
}

// HasBuild reports whether fpl carries a concrete build.
func (fpl FeaturePackLocation) HasBuild() bool {
	return fpl.Build != ""
}

// HasChannel reports whether fpl carries an explicit channel name.
func (fpl FeaturePackLocation) HasChannel() bool {
	return fpl.Channel != ""
}

// coordinateUniverse is the synthetic universe name used as a stand-in
// producer identity for coordinate-form locations, before resolution
// rewrites them into a full (universe, producer) location. It lets the
// builder pin a branch and key its coordinate-alias map before a
// coordinate-form entry's real producer is known.
const coordinateUniverse = "coordinate"

// ProducerSpec returns the ProducerSpec this location belongs to. For
// coordinate-form locations this is a synthetic identity derived from the
// opaque coordinate string, used only until resolution rewrites the
// location into full (universe, producer, channel, build) form.
func (fpl FeaturePackLocation) ProducerSpec() ProducerSpec {
	if fpl.IsCoordinateForm() {
		return ProducerSpec{Universe: coordinateUniverse, Producer: fpl.Coordinate}
	}
	return ProducerSpec{Universe: fpl.Universe, Producer: fpl.Producer}
}

// WithBuild returns a copy of fpl with Build replaced.
func (fpl FeaturePackLocation) WithBuild(build string) FeaturePackLocation {
	out := fpl
	out.Build = build
	return out
}

// WithChannel returns a copy of fpl with Channel replaced.
func (fpl FeaturePackLocation) WithChannel(channel string) FeaturePackLocation {
	out := fpl
	out.Channel = channel
	return out
}

// SameChannel reports whether two locations name the same channel.
// An unset channel compares equal only to another unset channel; callers
// that need "unset matches anything" semantics check HasChannel first.
func (fpl FeaturePackLocation) SameChannel(other FeaturePackLocation) bool {
	return fpl.Channel == other.Channel
}

// String renders fpl in coordinate form, or "universe:producer:channel:build".
func (fpl FeaturePackLocation) String() string {
	if fpl.IsCoordinateForm() {
		return fpl.Coordinate
	}
	parts := []string{fpl.Universe, fpl.Producer}
	if fpl.Channel != "" {
		parts = append(parts, fpl.Channel)
	}
	if fpl.Build != "" {
		parts = append(parts, fpl.Build)
	}
	return strings.Join(parts, ":")
}

// FeaturePackType tags what role a resolved feature pack plays in a layout.
type FeaturePackType int

const (
	// DirectDep is a feature pack declared at the top level of a config.
	DirectDep FeaturePackType = iota
	// TransitiveDep is a feature pack pulled in by another's declared deps.
	TransitiveDep
	// Patch is a feature pack whose spec declares a patch target.
	Patch
)

func (t FeaturePackType) String() string {
	switch t {
	case DirectDep:
		return "DIRECT_DEP"
	case TransitiveDep:
		return "TRANSITIVE_DEP"
	case Patch:
		return "PATCH"
	default:
		return "UNKNOWN"
	}
}
