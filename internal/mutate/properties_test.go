// SPDX-License-Identifier: AGPL-3.0-or-later

package mutate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packline/internal/layout"
	"packline/pkg/location"
	"packline/pkg/provisioning"
)

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newMutator(t *testing.T, factory *fakeFactory, universe *fakeUniverse, cfg provisioning.ProvisioningConfig) *Mutator[*testPack] {
	t.Helper()
	l, err := layout.New[*testPack](factory, testPackFactory(), universe, t.TempDir(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	m, err := New[*testPack](l, nil, true)
	require.NoError(t, err)
	return m
}

func TestMutator_Install_Idempotent(t *testing.T) {
	factory := newFakeFactory()
	factory.addPack(fpid("A", "stable", "1.0"), "")

	m := newEmptyMutator(t, factory, newFakeUniverse("stable"))
	fp := provisioning.FeaturePackConfig{Location: fpid("A", "stable", "1.0")}

	require.NoError(t, m.Install(fp, nil))
	after1 := m.Layout().Config()

	require.NoError(t, m.Install(fp, nil))
	after2 := m.Layout().Config()

	assert.Equal(t, after1, after2, "installing the same fpConfig twice must leave the config unchanged")
}

func TestMutator_InstallUninstall_RoundTrip(t *testing.T) {
	factory := newFakeFactory()
	factory.addPack(fpid("R", "stable", "1.0"), "")
	factory.addPack(fpid("A", "stable", "1.0"), "")

	cfg := provisioning.NewBuilder().AddDirect(provisioning.FeaturePackConfig{Location: fpid("R", "stable", "1.0")}).Build()
	m := newMutator(t, factory, newFakeUniverse("stable"), cfg)
	before := m.Layout().Config()

	require.NoError(t, m.Install(provisioning.FeaturePackConfig{Location: fpid("A", "stable", "1.0")}, nil))
	require.NoError(t, m.Uninstall(fpid("A", "stable", "1.0"), nil))

	assert.Equal(t, before, m.Layout().Config(), "install then uninstall of a fresh producer must restore the config")
}

func TestMutator_ApplyEmptyUpdates_IsNoOp(t *testing.T) {
	factory := newFakeFactory()
	factory.addPack(fpid("A", "stable", "1.0"), "")

	universe := newFakeUniverse("stable").withChannel("stable", "1.0")
	cfg := provisioning.NewBuilder().AddDirect(provisioning.FeaturePackConfig{Location: fpid("A", "stable", "1.0")}).Build()
	m := newMutator(t, factory, universe, cfg)
	before := m.Layout().Config()

	plan, err := m.GetUpdates(nil)
	require.NoError(t, err)
	require.True(t, plan.IsEmpty(), "a channel whose latest equals the installed build must yield an empty plan")

	require.NoError(t, m.Apply(plan, nil))
	assert.Equal(t, before, m.Layout().Config())
}

func TestMutator_ApplyUpdate_ReplacesBuild(t *testing.T) {
	factory := newFakeFactory()
	factory.addPack(fpid("A", "stable", "1.0"), "")
	factory.addPack(fpid("A", "stable", "1.1"), "")

	universe := newFakeUniverse("stable").withChannel("stable", "1.1")
	cfg := provisioning.NewBuilder().AddDirect(provisioning.FeaturePackConfig{Location: fpid("A", "stable", "1.0")}).Build()
	m := newMutator(t, factory, universe, cfg)

	plan, err := m.GetUpdates(nil)
	require.NoError(t, err)
	require.False(t, plan.IsEmpty())

	require.NoError(t, m.Apply(plan, nil))

	a, ok := m.Layout().FeaturePack(producerSpec("A"))
	require.True(t, ok)
	assert.Equal(t, "1.1", a.ID.Build)
	entry, ok := m.Layout().Config().FindDirect(producerSpec("A"))
	require.True(t, ok)
	assert.Equal(t, "1.1", entry.Location.Build)
}

func TestMutator_UninstallPatch_RestoresBaseContent(t *testing.T) {
	factory := newFakeFactory()

	aDir := t.TempDir()
	writeFile(t, aDir, "resources/x", "v1")
	factory.addPack(fpid("A", "stable", "1.0"), aDir)

	patchDir := t.TempDir()
	writeFile(t, patchDir, "resources/x", "v2")
	patchID := fpid("A-patch", "stable", "1.0")
	factory.addPatch(patchID, fpid("A", "stable", "1.0"), patchDir)

	cfg := provisioning.NewBuilder().AddDirect(provisioning.FeaturePackConfig{Location: fpid("A", "stable", "1.0")}).Build()
	m := newMutator(t, factory, newFakeUniverse("stable"), cfg)

	content, err := os.ReadFile(m.Layout().Resource("x"))
	require.NoError(t, err)
	require.Equal(t, "v1", string(content))

	require.NoError(t, m.Install(provisioning.FeaturePackConfig{Location: patchID}, nil))
	content, err = os.ReadFile(m.Layout().Resource("x"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(content))

	a, ok := m.Layout().FeaturePack(producerSpec("A"))
	require.True(t, ok)
	require.Equal(t, []location.FeaturePackID{patchID}, m.Layout().Patches(a.ID))

	require.NoError(t, m.Uninstall(patchID, nil))
	content, err = os.ReadFile(m.Layout().Resource("x"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(content), "uninstalling the patch must restore the base content")
	assert.Empty(t, m.Layout().Patches(a.ID))
}

func TestMutator_Install_DemoteDirectToTransitive(t *testing.T) {
	factory := newFakeFactory()
	factory.addPack(fpid("R", "stable", "1.0"), "", dep(fpid("A", "stable", "1.0")))
	factory.addPack(fpid("A", "stable", "1.0"), "")

	cfg := provisioning.NewBuilder().
		AddDirect(provisioning.FeaturePackConfig{Location: fpid("A", "stable", "1.0")}).
		AddDirect(provisioning.FeaturePackConfig{Location: fpid("R", "stable", "1.0")}).
		Build()
	m := newMutator(t, factory, newFakeUniverse("stable"), cfg)

	err := m.Install(provisioning.FeaturePackConfig{Location: fpid("A", "stable", "1.0"), Transitive: true}, nil)
	require.NoError(t, err)

	_, isDirect := m.Layout().Config().FindDirect(producerSpec("A"))
	assert.False(t, isDirect, "installing with Transitive set must demote a direct entry")
	entry, isTransitive := m.Layout().Config().FindTransitive(producerSpec("A"))
	require.True(t, isTransitive)
	assert.Equal(t, "1.0", entry.Location.Build)
}
