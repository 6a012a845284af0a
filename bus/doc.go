// Package bus fans out cache and auth state changes to subscribers.
//
// Events are tagged variants (CacheUpdated, AuthChanged, SignedOut) so
// payload shapes are checked at compile time. Publishing is synchronous
// and in subscription order; a panicking callback is recovered and
// logged, never propagated, and never prevents the remaining callbacks
// from running.
package bus
