package ports

import "context"

// Applier performs the actual update: stash local changes, fetch new source,
// reinstall dependencies, rebuild native extensions. The orchestrator treats
// the whole step as one opaque blocking call with a binary outcome; partial
// progress inside a failed Apply is the applier's own concern.
type Applier interface {
	// Apply runs the update step. A nil return means the workspace holds
	// the new code and the orchestrator may proceed to restore. A non-nil
	// return leaves the interruption flag set for the next invocation.
	Apply(ctx context.Context) error
}
