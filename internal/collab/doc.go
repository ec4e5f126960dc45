// Package collab owns the collaborator subsystem boundary.
//
// Ownership boundary:
// - the narrow accessor contract boot consumes (kind + status)
//
// - registration and lookup-by-kind
//
// Collab does not own binding order or readiness; boot owns both.
package collab
