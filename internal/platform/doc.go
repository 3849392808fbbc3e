// Package platform abstracts the host capabilities that surface services
// depend on: a clock, an animation-frame scheduler, a memory probe, and a
// load timer. Every capability has a production implementation and can be
// replaced with a test double for deterministic tests.
//
// A capability that the host does not provide reports its absence through a
// boolean return rather than an error; callers degrade gracefully.
package platform
