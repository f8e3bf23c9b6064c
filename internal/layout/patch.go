// SPDX-License-Identifier: AGPL-3.0-or-later

package layout

import (
	"path/filepath"

	"packline/internal/workarea"
	"packline/pkg/location"
)

// wellKnownPatchOnlySubdirs are overlaid into a patched feature pack's
// own working copy only; resources/ and plugins/ additionally flow into
// the work area's global aggregates (they are never target-exclusive,
// since unpatched consumers already see them there from traversal).
var wellKnownPatchOnlySubdirs = []string{"packages", "features", "feature-groups", "configs", "layers"}

// applyPatches runs over every materialised feature pack: for each
// pack with an entry in fpPatches, copy its current directory
// into patched/<fpid>/, redirect the entry to that copy, and overlay
// each patch's contents onto it in application order — patch-only
// subtrees into the patched copy alone, resources/ and plugins/ into
// both the patched copy and the global aggregates. Last write wins
// within any aggregate, so later patches (and later packs) shadow
// earlier content.
func (l *Layout[F]) applyPatches() error {
	for _, e := range l.ordered {
		stack := l.fpPatches[e.id]
		if len(stack) == 0 {
			continue
		}

		patchedDir, err := l.area.PatchedCopyDir(patchKey(e.id))
		if err != nil {
			return err
		}
		if err := workarea.CopyTree(e.dir, patchedDir); err != nil {
			return err
		}
		e.dir = patchedDir

		for _, patch := range stack {
			for _, sub := range wellKnownPatchOnlySubdirs {
				if err := workarea.OverlayTree(filepath.Join(patch.dir, sub), filepath.Join(patchedDir, sub)); err != nil {
					return err
				}
			}

			if err := workarea.OverlayTree(filepath.Join(patch.dir, "plugins"), filepath.Join(patchedDir, "plugins")); err != nil {
				return err
			}
			pluginsDir, err := l.area.PluginsDir()
			if err != nil {
				return err
			}
			if err := workarea.OverlayTree(filepath.Join(patch.dir, "plugins"), pluginsDir); err != nil {
				return err
			}

			if err := workarea.OverlayTree(filepath.Join(patch.dir, "resources"), filepath.Join(patchedDir, "resources")); err != nil {
				return err
			}
			resourcesDir, err := l.area.ResourcesDir()
			if err != nil {
				return err
			}
			if err := workarea.OverlayTree(filepath.Join(patch.dir, "resources"), resourcesDir); err != nil {
				return err
			}
		}
	}
	return nil
}

// patchKey renders an FPID into the path-safe <universe>/<producer>/
// <channel>/<build> form used under patched/.
func patchKey(fpid location.FeaturePackID) string {
	return filepath.Join(fpid.Universe, fpid.Producer, fpid.Channel, fpid.Build)
}
