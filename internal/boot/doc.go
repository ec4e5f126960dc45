// Package boot owns startup orchestration concerns.
//
// Ownership boundary:
// - the process-wide coordinator slot (first-registered-wins)
//
// - two-phase startup: construct everything, then bind by kind
//
// - the monotonic readiness flag and bounded readiness waits
//
// Lifecycle order:
// - construct -> register collaborators -> bind -> wait ready -> gates
//
// - binding never runs before every subsystem has registered.
//
// - a failed bind leaves the process non-ready; it never half-binds.
//
// Boot does not own gate decision logic or flag persistence.
package boot
