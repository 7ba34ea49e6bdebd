// Package references classifies host-reported path strings.
//
// A value is a texture, a single geometry file, a frame sequence pattern or
// a UDIM tile pattern, decided by its extension and the placeholder tokens
// it contains. Anything else is dropped with a warning.
package references
