// Package metadata composes and persists the metadata.json record that sits
// at the root of every packaged asset.
package metadata
