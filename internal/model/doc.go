// Package model provides the core domain types for the Time-Absence
// State Machine: slots, intents, and absences.
//
// This package contains type definitions and identity derivation only.
// All other internal packages import model; model imports nothing internal.
// This ensures the domain layer remains foundational with no circular
// dependencies.
//
// Key design constraints:
//   - Time is a Slot (uint64 logical counter), never a wall-clock timestamp
//   - Intent identity is content-addressed: SHA-256 with domain separation
//     over a canonical byte serialization of the intent's fields
//   - Absences are immutable facts; once constructed they are never mutated
package model
