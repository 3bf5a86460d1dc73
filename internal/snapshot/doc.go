// package snapshot builds point-in-time hierarchy snapshots from a remote
// drive account and indexes them for ordered traversal.
//
// [Build] walks the remote listing iterator into an immutable
// [models.Snapshot]. [Tree] layers parent and child indexes over a snapshot
// with depth lookups, ancestor chains, and parent-before-child traversal.
package snapshot
