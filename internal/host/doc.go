// Package host defines the capabilities the export pipeline needs from a 3D
// authoring application: listing file-referencing fields, writing library
// paths back, and optionally serializing the scene template.
//
// The pipeline never sees nodes or graph structure, only opaque owner and
// field keys. Manifest is a file-backed implementation used by the CLI and
// by tests.
package host
