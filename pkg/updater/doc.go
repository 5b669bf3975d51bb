// Package updater provides a crash-safe self-update routine for a
// field-deployed capture station, embeddable in other applications.
//
// The updater preserves the station configuration file and the calibration
// mask image across a source update, and records a durable interruption
// flag so that a run cut short by a crash or power loss is detected by the
// next invocation, which then trusts the existing backup instead of
// overwriting it with a possibly half-reset workspace.
//
// Example usage:
//
//	cfg := updater.Config{WorkspaceDir: "/home/station/source"}
//	u, err := updater.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := u.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// The actual code refresh (fetch, dependency reinstall, native rebuild) is
// delegated to an Applier; by default that is the update command configured
// in Config, run as a subprocess in the workspace.
package updater
