// Package config loads typed configuration from environment variables.
//
// It wraps github.com/caarlos0/env/v11 for struct-tag parsing and
// github.com/joho/godotenv for optional .env files. Each configuration type
// (and prefix) is parsed once per process and served from a cache afterwards;
// ResetCache clears it, which is mostly useful in tests.
//
//	var cfg userflow.Config
//	config.MustLoad(&cfg)
//
//	var store flowstore.RedisConfig
//	if err := config.LoadWithPrefix("SIGNUP_", &store); err != nil {
//		return err
//	}
package config
