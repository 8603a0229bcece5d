// package models defines the data model for the catalog mirror: album records,
// release dates, the remote scan fingerprint, and play-history events.
package models
