// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool with
// retrying startup, a readiness probe, and goose migrations embedded in the
// package so the binary carries its own schema.
//
// The migrations create the two tables this module persists to: the
// identity_mappings table backing idmap.NewPostgresStore and the
// subscriptions/subscription_items pair backing
// subscription.NewPostgresStore.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil { ... }
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil { ... }
package pg
