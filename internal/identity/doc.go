// Package identity implements the asset addressing scheme.
//
// An asset ID is an 11-character base UID shared by every variant and version
// of one logical asset, a two-letter variant code (AA..ZZ) and a zero-padded
// three-digit version. Versions grow monotonically within a (base UID,
// variant) lineage; variant codes are never reused for a base UID.
//
// The Allocator reads existing records through the Catalog interface, which
// the local registry implements.
package identity
