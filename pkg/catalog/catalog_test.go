// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"packline/pkg/location"
)

func TestCatalogChannel_Name(t *testing.T) {
	ch := &catalogChannel{channel: "stable"}
	assert.Equal(t, "stable", ch.Name())
}

func TestCatalogChannel_Resolve_ShortCircuitsWhenBuildAlreadyKnown(t *testing.T) {
	ch := &catalogChannel{channel: "stable"}
	build, err := ch.Resolve(location.FeaturePackLocation{Build: "1.0"})
	assert.NoError(t, err)
	assert.Equal(t, "1.0", build, "a location that already names a build must not require a catalog lookup")
}
