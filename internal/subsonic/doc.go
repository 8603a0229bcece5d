// package subsonic implements a client for the Subsonic REST API as served by
// Navidrome. All calls are read-only, authenticated with the salted-token
// scheme, rate limited, and retried with backoff on transient HTTP failures.
package subsonic
