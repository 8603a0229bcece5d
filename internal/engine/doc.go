// package engine implements incremental synchronization of the local album
// snapshot against the remote catalog.
//
// A pass may be skipped entirely when the remote scan fingerprint is unchanged;
// otherwise the engine diffs the remote listing against the cached snapshot,
// enriches new and expired records through a bounded worker pool, reconciles
// the result and persists it. Progress updates are emitted via channels for
// non-blocking status reporting to the CLI layer.
package engine
