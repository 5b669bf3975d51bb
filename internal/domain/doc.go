// Package domain contains the core domain entities and value objects for stationup.
//
// This package represents the innermost layer of the architecture. It has
// no dependencies on infrastructure concerns (file system, processes, logging)
// and contains only pure update semantics.
//
// # Entities
//
//   - [Flag]: Durable update-state record that survives a crash
//   - [Phase]: The step an update run has reached, recorded before each step
//   - [ProtectedFile]: A user file preserved across workspace updates
//
// # Design Principles
//
// Domain entities are:
//   - Free of infrastructure dependencies
//   - Focused on update invariants (what survives a crash, what gets skipped)
//   - Testable without mocks or external systems
package domain
