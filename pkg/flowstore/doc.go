// Package flowstore persists userflow snapshots.
//
// Four implementations of userflow.SnapshotStore are provided:
//
//   - Memory keeps snapshots in a map, for tests and single-process tools.
//   - Redis stores a hash per flow and uses a Lua script so that a save never
//     overwrites a newer version.
//   - Postgres upserts into the flow_snapshots table; Migrate creates it using
//     the embedded goose migrations.
//   - Mongo upserts one document per flow, filtered on the stored version.
//
// Every store rejects a snapshot whose version is not greater than the stored one
// with ErrStaleSnapshot, and returns ErrNotFound for unknown flows. Deleting an
// unknown flow is not an error.
//
// Connection helpers (ConnectRedis, ConnectPostgres, ConnectMongo) retry the initial
// connection according to their config, which can be loaded from the environment:
//
//	var cfg flowstore.RedisConfig
//	config.MustLoad(&cfg)
//
//	client, err := flowstore.ConnectRedis(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := flowstore.NewRedisFromConfig(client, cfg)
//
//	flow, err := userflow.New(subject, userflow.WithStore(store))
package flowstore
