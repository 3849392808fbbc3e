// Package ratelimit bounds how often a callback executes relative to a
// high-frequency call stream. It provides two independent policies:
//
//   - Debounced: only the last call in any quiet window of the configured
//     interval executes, after the quiet window elapses.
//   - Throttled: the first call in a window executes immediately; calls
//     arriving inside the window coalesce into exactly one trailing
//     execution at the window boundary, carrying the latest arguments.
//
// Both wrappers are cancelable: Stop clears any pending timer so no late
// execution fires against torn-down state.
package ratelimit
