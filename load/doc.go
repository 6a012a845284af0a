// Package load deduplicates concurrent fetches for the same resource
// key.
//
// At most one network operation per key is ever in flight: callers that
// arrive while a fetch is outstanding join its pending result instead
// of issuing a second call. The in-flight marker clears on completion,
// success or failure, so a later call may retry.
package load
