// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog is a Postgres-backed reference implementation of
// pkg/resolvers' UniverseResolver, Channel and ArtifactResolver, used by
// cmd/packline and integration tests that want to exercise the engine
// against a real catalog instead of an in-memory double. Production
// resolvers (network fetch, a different catalog backend) are an external
// concern this package does not attempt to generalize.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"packline/pkg/location"
	"packline/pkg/resolvers"
)

// Catalog is a UniverseResolver backed by a Postgres schema of producers,
// channels, builds and artifact blob paths.
type Catalog struct {
	db *sql.DB
}

var _ resolvers.UniverseResolver = (*Catalog)(nil)

// Open connects to dsn (a standard Postgres connection string) via the
// pgx stdlib driver and verifies connectivity.
func Open(ctx context.Context, dsn string) (*Catalog, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging catalog database: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying connection pool.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// EnsureSchema creates the catalog tables if they do not already exist,
// for local demos and integration tests that start from an empty database.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS packline_producers (
			universe TEXT NOT NULL,
			producer TEXT NOT NULL,
			default_channel TEXT NOT NULL,
			PRIMARY KEY (universe, producer)
		)`,
		`CREATE TABLE IF NOT EXISTS packline_builds (
			universe TEXT NOT NULL,
			producer TEXT NOT NULL,
			channel TEXT NOT NULL,
			build TEXT NOT NULL,
			published_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (universe, producer, channel, build)
		)`,
		`CREATE TABLE IF NOT EXISTS packline_artifacts (
			repo_id TEXT NOT NULL,
			coordinate TEXT NOT NULL,
			blob_path TEXT NOT NULL,
			PRIMARY KEY (repo_id, coordinate)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring catalog schema: %w", err)
		}
	}
	return nil
}

// DefaultChannelName returns producer's configured default channel.
func (c *Catalog) DefaultChannelName(producer location.ProducerSpec) (string, error) {
	var channel string
	err := c.db.QueryRowContext(context.Background(),
		`SELECT default_channel FROM packline_producers WHERE universe = $1 AND producer = $2`,
		producer.Universe, producer.Producer,
	).Scan(&channel)
	if err != nil {
		return "", fmt.Errorf("looking up default channel for %s: %w", producer, err)
	}
	return channel, nil
}

// GetChannel returns the Channel serving fpl's producer/channel.
func (c *Catalog) GetChannel(fpl location.FeaturePackLocation) (resolvers.Channel, error) {
	return &catalogChannel{catalog: c, universe: fpl.Universe, producer: fpl.Producer, channel: fpl.Channel}, nil
}

// GetArtifactResolver returns the ArtifactResolver for repoID.
func (c *Catalog) GetArtifactResolver(repoID string) (resolvers.ArtifactResolver, error) {
	return &catalogArtifactResolver{catalog: c, repoID: repoID}, nil
}

// catalogChannel is one (universe, producer, channel) series of builds.
type catalogChannel struct {
	catalog  *Catalog
	universe string
	producer string
	channel  string
}

func (ch *catalogChannel) Name() string { return ch.channel }

func (ch *catalogChannel) GetLatestBuild(location.FeaturePackLocation) (string, error) {
	var build string
	err := ch.catalog.db.QueryRowContext(context.Background(),
		`SELECT build FROM packline_builds
		 WHERE universe = $1 AND producer = $2 AND channel = $3
		 ORDER BY published_at DESC LIMIT 1`,
		ch.universe, ch.producer, ch.channel,
	).Scan(&build)
	if err != nil {
		return "", fmt.Errorf("looking up latest build for %s:%s@%s: %w", ch.universe, ch.producer, ch.channel, err)
	}
	return build, nil
}

func (ch *catalogChannel) Resolve(fpl location.FeaturePackLocation) (string, error) {
	if fpl.HasBuild() {
		return fpl.Build, nil
	}
	return ch.GetLatestBuild(fpl)
}

func (ch *catalogChannel) IsResolved(fpl location.FeaturePackLocation) (bool, error) {
	var exists bool
	err := ch.catalog.db.QueryRowContext(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM packline_builds WHERE universe = $1 AND producer = $2 AND channel = $3 AND build = $4)`,
		ch.universe, ch.producer, ch.channel, fpl.Build,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking build %s is published: %w", fpl.Build, err)
	}
	return exists, nil
}

// catalogArtifactResolver resolves plugin artifact coordinates within one
// repository to the local blob path the catalog recorded for them.
type catalogArtifactResolver struct {
	catalog *Catalog
	repoID  string
}

func (r *catalogArtifactResolver) Resolve(loc resolvers.ArtifactLocation) (string, error) {
	var blobPath string
	err := r.catalog.db.QueryRowContext(context.Background(),
		`SELECT blob_path FROM packline_artifacts WHERE repo_id = $1 AND coordinate = $2`,
		r.repoID, loc.Coordinate,
	).Scan(&blobPath)
	if err != nil {
		return "", fmt.Errorf("resolving artifact %s in repo %s: %w", loc.Coordinate, r.repoID, err)
	}
	return blobPath, nil
}
