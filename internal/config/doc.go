// Package config loads, normalizes, and validates assetlib configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ASSETLIB_API_URL and ASSETLIB_API_KEY. The Config type centralizes every
// knob the export pipeline and CLI need: the library root, placeholder token
// tables, frame range policy, copy concurrency and the ingestion endpoint.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical token lists, and clear validation errors.
package config
