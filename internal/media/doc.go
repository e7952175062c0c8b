// Package media defines the canonical data model shared by scanners, the
// normalizer, and the upload pipeline.
//
// A RawItem carries platform-specific facts straight off the filesystem; the
// normalizer turns it into a MediaItem with a resolved capture timestamp and
// an optional game-title hint. MediaItems live only for the duration of one
// run; only their fingerprints persist (see internal/ledger).
package media
