package flowstore

import "errors"

var (
	ErrNotFound       = errors.New("flow snapshot not found")
	ErrStaleSnapshot  = errors.New("flow snapshot is older than the stored one")
	ErrEncodeSnapshot = errors.New("failed to encode flow snapshot")
	ErrDecodeSnapshot = errors.New("failed to decode flow snapshot")

	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")

	ErrFailedToParseDBConfig    = errors.New("failed to parse db config")
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")
	ErrFailedToApplyMigrations  = errors.New("failed to apply migrations")

	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")

	ErrHealthcheckFailed = errors.New("flow store healthcheck failed")
)
