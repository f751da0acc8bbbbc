// Package datastore provides prefix-scoped cache backends over three storage
// primitives: a grouped object cache, a durable option store and an expiring
// transient store.
//
// Every backend is bound to a key prefix. The object cache and transient
// backends also carry a generation; invalidating a backend bumps the
// generation so that every key written before it becomes unreachable without
// deleting entries one by one.
//
// # Quick Start
//
// Open a host with the default configuration (bigcache object cache and an
// in-memory option store):
//
//	host, err := datastore.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer host.Close()
//
// # Backends
//
// Object cache, scoped to a group:
//
//	c, _ := host.Cache(ctx, "my_prefix_", "users")
//	c.Set(ctx, "123", user, 5*time.Minute)
//	v := c.Get(ctx, "123", nil)
//	c.Invalidate(ctx)
//
// Options are durable and never versioned, so they cannot be invalidated:
//
//	opts, _ := host.Options("my_prefix_")
//	opts.Set(ctx, "color", "blue")
//	opts.Set(ctx, "big_blob", blob, datastore.WithoutAutoload())
//
// Transients expire and are versioned:
//
//	tr, _ := host.Transients(ctx, "my_prefix_")
//	tr.Set(ctx, "report", report, time.Hour)
//	tr.Invalidate(ctx)
//
// Large structs can be stored compressed and read back with a type check:
//
//	tr.SetLargeObject(ctx, "report", &report, time.Hour)
//	r, ok := datastore.GetLargeObjectAs[Report](ctx, tr, "report")
//
// # Raw access
//
// Pass Raw to address the exact stored name instead of the prefixed,
// versioned one:
//
//	tr.Get(ctx, "my_prefix_transients_incrementor", datastore.Raw())
//
// # Configuration
//
// Load configuration from a JSON or YAML file, with DATASTORE_* environment
// overrides:
//
//	host, err := datastore.NewFromFile(ctx, "datastore.yaml")
//
// Or start from the defaults:
//
//	cfg := datastore.Config()
//	cfg.ObjectCache.Driver = "redis"
//	cfg.Redis.Address = "localhost:6379"
//	host, err := datastore.NewFromConfig(ctx, cfg)
//
// # Logging
//
// The host logs through log/slog. Any Logger (see the zaplog and logruslog
// packages) can be plugged in with WithLogger.
//
// # Thread Safety
//
// Hosts and backends are safe for concurrent use.
package datastore
