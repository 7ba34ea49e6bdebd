// Package packager builds the on-disk library entry for one asset.
//
// Names are planned up front in reference order, then copies run on a
// bounded worker pool. Results are merged back in plan order so the output
// never depends on which copy finished first. Pattern references are not
// copied; they are mapped to the sequence folder with the placeholder kept.
package packager
