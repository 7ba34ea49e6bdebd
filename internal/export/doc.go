// Package export runs one asset export end to end.
//
// A run validates the request, takes the library lock, allocates an
// identity, scans and resolves the host references, packages the files,
// writes Data/paths.json and rewrites the host, composes metadata.json and
// registers the asset. The lock is released before the record is sent to
// the external index, so a slow or failing index never holds up other
// exports and never touches the committed files.
//
// Run always returns a Result. Success is false only for problems detected
// before anything was written: invalid input, an unknown lineage, an
// existing asset directory or broken configuration. Either way an ntfy
// notice is sent when a topic is configured.
package export
