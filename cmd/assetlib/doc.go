// Package main hosts the assetlib CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into calls on the
// internal packages: export packages a scene manifest into the library,
// ingest replays index ingestion for an exported asset, registry and remap
// inspect what previous exports recorded, and preflight/config help set up a
// workstation. Configuration is resolved once per invocation and shared by
// every subcommand.
//
// Keep this package lean: new behaviour belongs in internal packages first.
package main
