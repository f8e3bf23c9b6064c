// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"

	"packline/internal/featurepack"
	"packline/internal/layout"
	"packline/internal/mutate"
	"packline/pkg/catalog"
	"packline/pkg/localfp"
	"packline/pkg/logging"
	"packline/pkg/provisioning"
)

// engine bundles the open resources a command needs to mutate the
// installed set and must close before returning: the catalog connection
// and the layout's work area.
type engine struct {
	catalog *catalog.Catalog
	mutator *mutate.Mutator[*featurepack.FeaturePack]
	config  string
	log     *logging.Logger
}

// openEngine loads flags.Config (an empty config if the file does not yet
// exist), connects to the catalog at flags.DSN, builds the local-archive
// factory rooted at flags.Archives, and lays out the installed set.
func openEngine(flags *ResolvedFlags) (*engine, error) {
	if flags.DSN == "" {
		return nil, fmt.Errorf("no catalog DSN configured; pass --dsn or set PACKLINE_DSN")
	}

	cfg, err := provisioning.Load(flags.Config)
	if err != nil {
		if err != provisioning.ErrConfigNotFound {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = provisioning.NewBuilder().Build()
	}

	ctx := context.Background()
	cat, err := catalog.Open(ctx, flags.DSN)
	if err != nil {
		return nil, err
	}
	if err := cat.EnsureSchema(ctx); err != nil {
		_ = cat.Close()
		return nil, err
	}

	log := logging.NewLogger(flags.Verbose)
	fact := &localfp.Factory{Root: flags.Archives, Progress: logging.NewProgressTracker(log)}

	// An empty baseDir tells the work area to root itself under the
	// system temp directory; it creates and owns its own subdirectory.
	l, err := layout.New[*featurepack.FeaturePack](fact, featurepack.Factory{}, cat, "", cfg)
	if err != nil {
		_ = cat.Close()
		return nil, err
	}

	m, err := mutate.New(l, nil, false)
	if err != nil {
		_ = l.Close()
		_ = cat.Close()
		return nil, err
	}

	return &engine{catalog: cat, mutator: m, config: flags.Config, log: log}, nil
}

// save persists the engine's current config back to disk.
func (e *engine) save() error {
	return provisioning.Save(e.config, e.mutator.Layout().Config())
}

// close releases the engine's work area and catalog connection, logging
// but swallowing any error from either, matching the engine's own
// close-never-throws contract.
func (e *engine) close() {
	if err := e.mutator.Layout().Close(); err != nil {
		e.log.Errorf("closing layout: %v", err)
	}
	if err := e.catalog.Close(); err != nil {
		e.log.Errorf("closing catalog: %v", err)
	}
}
