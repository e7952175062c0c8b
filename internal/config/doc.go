// Package config loads, normalizes, and validates gamesync configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// IMMICH_API_KEY. Immich credentials are validated lazily so scan/embed-only
// runs work without a server configured.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
