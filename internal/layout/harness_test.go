// SPDX-License-Identifier: AGPL-3.0-or-later

package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"packline/pkg/location"
	"packline/pkg/perr"
	"packline/pkg/resolvers"
)

// writeFile writes content to root/relPath, creating parent directories.
func writeFile(root, relPath, content string) error {
	full := filepath.Join(root, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, []byte(content), 0o644)
}

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}

// testPack is the F this package's tests parameterise Layout with: it
// just captures what resolveFeaturePack handed back, so assertions can
// inspect exactly what the traversal produced.
type testPack struct {
	ID   location.FeaturePackID
	Spec resolvers.FeaturePackSpec
	Dir  string
	Typ  location.FeaturePackType
}

func testPackFactory() resolvers.FeaturePackLayoutFactoryFunc[*testPack] {
	return func(id location.FeaturePackID, spec resolvers.FeaturePackSpec, dir string, typ location.FeaturePackType) (*testPack, error) {
		return &testPack{ID: id, Spec: spec, Dir: dir, Typ: typ}, nil
	}
}

// fakeFactory is a resolvers.LayoutFactory backed by an in-memory table
// of archives and patches, keyed by FPL/FPID string form.
type fakeFactory struct {
	archives map[string]resolvers.ResolvedFeaturePack
	patches  map[string]resolvers.ResolvedFeaturePack
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		archives: map[string]resolvers.ResolvedFeaturePack{},
		patches:  map[string]resolvers.ResolvedFeaturePack{},
	}
}

func (f *fakeFactory) addPack(id location.FeaturePackID, dir string, deps ...resolvers.Dependency) {
	f.archives[id.String()] = resolvers.ResolvedFeaturePack{
		ID:   id,
		Spec: resolvers.FeaturePackSpec{DirectDeps: deps},
		Dir:  dir,
	}
}

func (f *fakeFactory) addPatch(id location.FeaturePackID, target location.FeaturePackID, dir string) {
	f.patches[id.String()] = resolvers.ResolvedFeaturePack{
		ID:   id,
		Spec: resolvers.FeaturePackSpec{IsPatch: true, PatchFor: target},
		Dir:  dir,
	}
}

// ResolveFeaturePack looks a location up by its string form across both
// tables, regardless of typ: a real factory has no advance knowledge of
// whether a location names a patch before reading its spec, so test
// callers resolving with any typ must still find a registered patch.
func (f *fakeFactory) ResolveFeaturePack(fpl location.FeaturePackLocation, typ location.FeaturePackType) (resolvers.ResolvedFeaturePack, error) {
	key := fpl.String()
	if rp, ok := f.archives[key]; ok {
		return rp, nil
	}
	if rp, ok := f.patches[key]; ok {
		return rp, nil
	}
	return resolvers.ResolvedFeaturePack{}, perr.New(perr.UnknownFeaturePack, "unknown feature pack: "+key, fpl)
}

func (f *fakeFactory) NewProgressTracker() resolvers.ProgressTracker { return resolvers.NoopProgressTracker{} }

// fakeChannel serves a single channel name with a fixed latest build.
type fakeChannel struct {
	name   string
	latest string
}

func (c *fakeChannel) Name() string { return c.name }
func (c *fakeChannel) GetLatestBuild(location.FeaturePackLocation) (string, error) {
	return c.latest, nil
}
func (c *fakeChannel) Resolve(location.FeaturePackLocation) (string, error) { return "/dev/null", nil }
func (c *fakeChannel) IsResolved(location.FeaturePackLocation) (bool, error) { return true, nil }

// fakeUniverse answers default-channel and channel-by-name lookups from
// a fixed table built by the test.
type fakeUniverse struct {
	defaultChannel string
	channels       map[string]*fakeChannel
}

func newFakeUniverse(defaultChannel string) *fakeUniverse {
	return &fakeUniverse{defaultChannel: defaultChannel, channels: map[string]*fakeChannel{}}
}

func (u *fakeUniverse) withChannel(name, latest string) *fakeUniverse {
	u.channels[name] = &fakeChannel{name: name, latest: latest}
	return u
}

func (u *fakeUniverse) DefaultChannelName(location.ProducerSpec) (string, error) {
	return u.defaultChannel, nil
}

func (u *fakeUniverse) GetChannel(fpl location.FeaturePackLocation) (resolvers.Channel, error) {
	ch, ok := u.channels[fpl.Channel]
	if !ok {
		return nil, fmt.Errorf("no such channel: %s", fpl.Channel)
	}
	return ch, nil
}

func (u *fakeUniverse) GetArtifactResolver(string) (resolvers.ArtifactResolver, error) {
	return fakeArtifactResolver{}, nil
}

type fakeArtifactResolver struct{}

func (fakeArtifactResolver) Resolve(loc resolvers.ArtifactLocation) (string, error) {
	return "/dev/null/" + loc.Coordinate, nil
}

func fpid(producer, channel, build string) location.FeaturePackID {
	return location.FeaturePackLocation{Universe: "u", Producer: producer, Channel: channel, Build: build}
}
