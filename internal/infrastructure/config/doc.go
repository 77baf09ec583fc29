// Package config provides environment-based configuration.
//
// Settings load from ORRERY_* environment variables with sensible defaults,
// so the server runs with zero configuration in development. Named remote
// server profiles can additionally load from a TOML file referenced by
// ORRERY_REMOTE_PROFILES.
package config
