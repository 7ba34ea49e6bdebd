// Package textutil provides text helpers for library folder naming and tag
// extraction.
//
// The primary use cases are:
//   - Sanitizing filenames and hierarchy labels for safe filesystem use
//   - Splitting names, descriptions and user tag lists into lowercase words
package textutil
