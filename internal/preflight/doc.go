// Package preflight provides readiness checks for the filesystem paths and
// external services assetlib depends on.
//
// The CLI "assetlib preflight" command runs RunAll and prints each result;
// a failed check makes the command exit non-zero. The asset index is only
// checked when ingestion is enabled.
package preflight
