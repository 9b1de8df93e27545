// Package config loads, normalizes, and validates ballotforge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads optional .env files, and honours
// environment fallbacks such as BALLOTFORGE_TRANSLATE_API_KEY. The Config type
// centralizes every knob the worker and CLI need so storage locations and
// external service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
