// Package release models a MusicBrainz release group as fetched from the
// metadata service and derives everything the harvest pipeline needs from it.
//
// Group is a plain data holder decoded straight from the JSON payload. Its
// methods are pure: predicates used for filtering (IsAlbum, IsSolo,
// IsReleasedBy), genre resolution against an allow-list, construction of the
// output record, and the deterministic cover path. Nothing in this package
// performs network I/O; the only side effect is the optional operator prompt
// used when a name cannot be turned into a path segment.
package release
