// Package httperr classifies failed network outcomes into a fixed error
// taxonomy.
//
// Every error that crosses the network boundary is mapped to one Kind
// (unauthenticated, forbidden, not found, rate limited, server error,
// network unreachable, or unknown). Each Kind carries a stable,
// non-technical message suitable for display; the raw cause is retained
// only for diagnostic logging via errors.Unwrap.
package httperr
