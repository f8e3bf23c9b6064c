// SPDX-License-Identifier: AGPL-3.0-or-later

package mutate

import (
	"fmt"

	"packline/pkg/location"
	"packline/pkg/perr"
	"packline/pkg/resolvers"
)

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

type fakeFactory struct {
	archives map[string]resolvers.ResolvedFeaturePack
	patches  map[string]resolvers.ResolvedFeaturePack
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{archives: map[string]resolvers.ResolvedFeaturePack{}, patches: map[string]resolvers.ResolvedFeaturePack{}}
}

func (f *fakeFactory) addPack(id location.FeaturePackID, dir string, deps ...resolvers.Dependency) {
	f.archives[id.String()] = resolvers.ResolvedFeaturePack{ID: id, Spec: resolvers.FeaturePackSpec{DirectDeps: deps}, Dir: dir}
}

func (f *fakeFactory) addPatch(id location.FeaturePackID, target location.FeaturePackID, dir string) {
	f.patches[id.String()] = resolvers.ResolvedFeaturePack{ID: id, Spec: resolvers.FeaturePackSpec{IsPatch: true, PatchFor: target}, Dir: dir}
}

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

type fakeChannel struct {
	name   string
	latest string
}

func (c *fakeChannel) Name() string                                                { return c.name }
func (c *fakeChannel) GetLatestBuild(location.FeaturePackLocation) (string, error) { return c.latest, nil }
func (c *fakeChannel) Resolve(location.FeaturePackLocation) (string, error)        { return "/dev/null", nil }
func (c *fakeChannel) IsResolved(location.FeaturePackLocation) (bool, error)       { return true, nil }

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

func producerSpec(producer string) location.ProducerSpec {
	return location.ProducerSpec{Universe: "u", Producer: producer}
}
