// Package registry is the local SQLite catalog of exported assets.
//
// Every successful export registers one row per asset version after its
// metadata.json is on disk. The identity allocator reads versions and
// variant codes back through Store, and the CLI lists records and tracks
// which ones still need ingestion.
package registry
