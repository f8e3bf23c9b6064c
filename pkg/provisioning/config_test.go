// SPDX-License-Identifier: AGPL-3.0-or-later

package provisioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packline/pkg/location"
)

func producer(u, p string) location.ProducerSpec {
	return location.ProducerSpec{Universe: u, Producer: p}
}

func TestBuilder_AddDirectAndFind(t *testing.T) {
	b := NewBuilder()
	a := FeaturePackConfig{Location: location.FeaturePackLocation{Universe: "u", Producer: "a", Channel: "stable", Build: "1.0"}}
	c := FeaturePackConfig{Location: location.FeaturePackLocation{Universe: "u", Producer: "c", Channel: "stable", Build: "1.0"}}
	b.AddDirect(a).AddDirect(c)

	cfg := b.Build()
	require.Len(t, cfg.Direct(), 2)
	found, ok := cfg.FindDirect(producer("u", "a"))
	require.True(t, ok)
	assert.Equal(t, "1.0", found.Location.Build)

	_, ok = cfg.FindDirect(producer("u", "missing"))
	assert.False(t, ok)
}

func TestBuilder_InsertDirectAtIndex(t *testing.T) {
	b := NewBuilder()
	mk := func(p string) FeaturePackConfig {
		return FeaturePackConfig{Location: location.FeaturePackLocation{Universe: "u", Producer: p}}
	}
	b.AddDirect(mk("a")).AddDirect(mk("c"))
	b.InsertDirect(1, mk("b"))

	cfg := b.Build()
	names := make([]string, 0, 3)
	for _, e := range cfg.Direct() {
		names = append(names, e.Location.Producer)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestBuilder_RemoveDirect(t *testing.T) {
	b := NewBuilder()
	b.AddDirect(FeaturePackConfig{Location: location.FeaturePackLocation{Universe: "u", Producer: "a"}})
	b.RemoveDirect(producer("u", "a"))
	cfg := b.Build()
	assert.False(t, cfg.HasFeaturePacks())
}

func TestBuilder_TransitiveSetRemove(t *testing.T) {
	b := NewBuilder()
	tc := FeaturePackConfig{Location: location.FeaturePackLocation{Universe: "u", Producer: "d"}, Transitive: true}
	b.SetTransitive(tc)
	cfg := b.Build()
	_, ok := cfg.FindTransitive(producer("u", "d"))
	assert.True(t, ok)

	b2 := FromConfig(cfg).RemoveTransitive(producer("u", "d"))
	cfg2 := b2.Build()
	_, ok = cfg2.FindTransitive(producer("u", "d"))
	assert.False(t, ok)
}

func TestBuilder_Options(t *testing.T) {
	b := NewBuilder().SetOption("VERSION_CONVERGENCE", "FAIL")
	cfg := b.Build()
	v, ok := cfg.Option("VERSION_CONVERGENCE")
	require.True(t, ok)
	assert.Equal(t, "FAIL", v)

	cfg2 := FromConfig(cfg).ClearOptions().Build()
	assert.Empty(t, cfg2.Options())
}

func TestFeaturePackConfig_PatchHelpers(t *testing.T) {
	patch := location.FeaturePackID{Universe: "u", Producer: "patch1", Build: "1.0"}
	c := FeaturePackConfig{Location: location.FeaturePackLocation{Universe: "u", Producer: "a"}}

	withPatch := c.WithPatch(patch)
	assert.True(t, withPatch.HasPatch(patch))
	assert.False(t, c.HasPatch(patch), "original must be untouched")

	// Adding the same patch twice does not duplicate it.
	withPatch2 := withPatch.WithPatch(patch)
	assert.Len(t, withPatch2.Patches, 1)

	withoutPatch := withPatch.WithoutPatch(patch)
	assert.False(t, withoutPatch.HasPatch(patch))
}

func TestProvisioningConfig_IsInstalled(t *testing.T) {
	b := NewBuilder()
	b.AddDirect(FeaturePackConfig{Location: location.FeaturePackLocation{Universe: "u", Producer: "a"}})
	b.SetTransitive(FeaturePackConfig{Location: location.FeaturePackLocation{Universe: "u", Producer: "b"}, Transitive: true})
	cfg := b.Build()

	assert.True(t, cfg.IsInstalled(producer("u", "a")))
	assert.True(t, cfg.IsInstalled(producer("u", "b")))
	assert.False(t, cfg.IsInstalled(producer("u", "c")))
}

func TestProvisioningPlan_IsEmpty(t *testing.T) {
	plan := ProvisioningPlan{}
	assert.True(t, plan.IsEmpty())

	fpl := location.FeaturePackLocation{Universe: "u", Producer: "a", Build: "1.0"}
	plan.Updates = []FeaturePackUpdatePlan{{
		Producer:          producer("u", "a"),
		InstalledLocation: fpl,
		NewLocation:       fpl,
	}}
	assert.True(t, plan.IsEmpty(), "a no-op update must not count as work")

	plan.Updates[0].NewLocation = fpl.WithBuild("2.0")
	assert.False(t, plan.IsEmpty())
	assert.Len(t, plan.NonEmptyUpdates(), 1)
}
