// Package flagstore owns durable boolean flag persistence.
//
// Ownership boundary:
// - key -> bool state surviving process restarts
//
// - single serialization point for file writes
//
// - defaults for absent keys
//
// Flagstore does not decide what a flag means; gates own decision logic.
package flagstore
