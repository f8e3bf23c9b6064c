// SPDX-License-Identifier: AGPL-3.0-or-later

package options

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"packline/pkg/perr"
)

func TestReconcile_RequiredOptionMissing(t *testing.T) {
	res := Reconcile(Input{
		Recognised: []OptionSpec{{Name: "PLUGIN_X_MODE", Required: true}},
	})
	assert.Len(t, res.Errors, 1)
	assert.True(t, perr.HasReason(res.Errors[0], perr.PluginOptionRequired))
}

func TestReconcile_UnrecognisedOption_CleanupDrops(t *testing.T) {
	res := Reconcile(Input{
		ConfigOptions:        map[string]string{"STALE_OPT": "1"},
		CleanupConfigOptions: true,
	})
	assert.Empty(t, res.Errors)
	assert.NotContains(t, res.NewConfigOptions, "STALE_OPT")
}

func TestReconcile_UnrecognisedOption_NoCleanupFails(t *testing.T) {
	res := Reconcile(Input{
		ConfigOptions: map[string]string{"STALE_OPT": "1"},
	})
	assert.Len(t, res.Errors, 1)
	assert.True(t, perr.HasReason(res.Errors[0], perr.PluginOptionsNotRecognised))
}

func TestReconcile_PersistentOverrideWrittenBack(t *testing.T) {
	res := Reconcile(Input{
		ConfigOptions: map[string]string{"VERSION_CONVERGENCE": "FIRST_PROCESSED"},
		ExtraOptions:  map[string]string{"VERSION_CONVERGENCE": "FAIL"},
		Recognised:    BuiltIn,
	})
	assert.Empty(t, res.Errors)
	assert.Equal(t, "FAIL", res.Effective["VERSION_CONVERGENCE"])
	assert.Equal(t, "FAIL", res.NewConfigOptions["VERSION_CONVERGENCE"])
}

func TestReconcile_NonPersistentOverride_DiffersRemovesConfigEntry(t *testing.T) {
	spec := OptionSpec{Name: "RUN_MODE", Persistent: false}
	res := Reconcile(Input{
		ConfigOptions: map[string]string{"RUN_MODE": "slow"},
		ExtraOptions:  map[string]string{"RUN_MODE": "fast"},
		Recognised:    []OptionSpec{spec},
	})
	assert.Equal(t, "fast", res.Effective["RUN_MODE"])
	assert.NotContains(t, res.NewConfigOptions, "RUN_MODE", "a differing non-persistent override must not leak into the persisted config")
}

func TestReconcile_NonPersistentOverride_EqualLeavesConfigEntry(t *testing.T) {
	spec := OptionSpec{Name: "RUN_MODE", Persistent: false}
	res := Reconcile(Input{
		ConfigOptions: map[string]string{"RUN_MODE": "fast"},
		ExtraOptions:  map[string]string{"RUN_MODE": "fast"},
		Recognised:    []OptionSpec{spec},
	})
	assert.Equal(t, "fast", res.NewConfigOptions["RUN_MODE"])
}
