// Package gate owns one-time boot decision points.
//
// Ownership boundary:
// - decision precedence (disabled, force-skip, seen, first-time)
//
// - the single Unseen -> Seen transition per gate
//
// - persisting Seen before the chosen transition is observable
//
// Lifecycle order:
// - a gate fires at most once per instance.
//
// - debug reset is the only way back and requires dev mode.
//
// Gate does not own readiness; boot decides when gates may fire.
package gate
