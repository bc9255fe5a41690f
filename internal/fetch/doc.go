// Package fetch wraps outbound HTTP calls with the bounded retry policy shared
// by every upstream the harvester talks to.
//
// Only 503 Service Unavailable is treated as transient. Each transient failure
// is followed by a sleep of base*2^n (1s, 2s, 4s, 8s with the defaults) before
// the next attempt; after the final attempt the call fails with
// ErrRetriesExhausted. Every other HTTP error status surfaces immediately as a
// *StatusError, and transport errors propagate unchanged.
//
// The transport (Doer) and the sleep function are injectable so tests can
// drive the schedule without waiting on a real clock.
package fetch
