// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the update orchestration core and the
// outside world. They define what the orchestrator needs from external
// systems without specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [BackupStore]: Preserves protected user files across workspace updates
//   - [Tracker]: Persists the durable interruption flag for crash recovery
//   - [Applier]: Performs the actual source refresh and dependency rebuild
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// implementations (file system, subprocesses, zerolog).
package ports
