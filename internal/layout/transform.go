// SPDX-License-Identifier: AGPL-3.0-or-later

package layout

import "packline/pkg/resolvers"

// Transform builds a new Layout parameterised by a different F type over
// the same already-materialised feature-pack graph, sharing the
// underlying work area by reference count. No archive is re-resolved
// and no I/O is re-run:
// every existing entry's (id, spec, dir, typ) is simply handed to the
// new factory to construct the G value. Closing the returned layout and
// closing l are independent; the work area is removed only once both
// (and any other transformed views) have closed.
func Transform[F, G any](l *Layout[F], fpFactory resolvers.FeaturePackLayoutFactory[G]) (*Layout[G], error) {
	out := &Layout[G]{
		factory:   l.factory,
		fpFactory: fpFactory,
		universe:  l.universe,
		area:      l.area.Acquire(),
		progress:  l.factory.NewProgressTracker(),
		config:    l.config,
	}
	out.resetState()

	converted := make(map[*entry[F]]*entry[G], len(l.featurePacks))
	convert := func(e *entry[F]) (*entry[G], error) {
		if g, ok := converted[e]; ok {
			return g, nil
		}
		val, err := fpFactory.New(e.id, e.spec, e.dir, e.typ)
		if err != nil {
			return nil, err
		}
		g := &entry[G]{id: e.id, spec: e.spec, dir: e.dir, typ: e.typ, val: val}
		converted[e] = g
		return g, nil
	}

	for producer, e := range l.featurePacks {
		g, err := convert(e)
		if err != nil {
			out.area.Close()
			return nil, err
		}
		out.featurePacks[producer] = g
	}
	for _, e := range l.ordered {
		g, err := convert(e)
		if err != nil {
			out.area.Close()
			return nil, err
		}
		out.ordered = append(out.ordered, g)
	}
	for fpid, e := range l.allPatches {
		g, err := convert(e)
		if err != nil {
			out.area.Close()
			return nil, err
		}
		out.allPatches[fpid] = g
	}
	for target, stack := range l.fpPatches {
		for _, e := range stack {
			g, err := convert(e)
			if err != nil {
				out.area.Close()
				return nil, err
			}
			out.fpPatches[target] = append(out.fpPatches[target], g)
		}
	}
	for producer, e := range l.coordinateAliases {
		g, err := convert(e)
		if err != nil {
			out.area.Close()
			return nil, err
		}
		out.coordinateAliases[producer] = g
	}

	for p, v := range l.transitiveDeps {
		out.transitiveDeps[p] = v
	}
	for p, v := range l.resolvedVersions {
		out.resolvedVersions[p] = v
	}
	for id, v := range l.pluginLocations {
		out.pluginLocations[id] = v
	}
	out.failOnConvergence = l.failOnConvergence

	return out, nil
}
