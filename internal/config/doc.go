// Package config resolves load planner settings: HTTP server, catalog source,
// history storage and preview cache backends, and request limits.
//
// Sources apply in increasing priority: defaults, environment variables, the
// YAML config file, then CLI flags.
package config
