// Package remap builds the original-to-library path table of an asset and
// persists it as Data/paths.json.
//
// Pattern keys keep their placeholder: only the directory part of a
// sequence pattern changes when it is remapped.
package remap
