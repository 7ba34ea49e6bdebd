// Package sequence expands frame and tile placeholders into concrete files.
//
// A Resolver lists the directory of each pattern once per run (listings are
// kept in an LRU cache), matches files of the form prefix + digits + suffix
// and groups them under the library subfolder they are packaged into. UDIM
// sets that match nothing fall back to probing the default tile before the
// group is marked unresolved.
//
// DetectFrameRange turns the discovered frame files into the exported range.
package sequence
