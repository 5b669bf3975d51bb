package domain

import "time"

// Phase identifies how far an update run has progressed. It is recorded
// durably before the step it names begins, so a crash leaves behind the
// phase that was in flight.
type Phase string

const (
	// PhaseIdle is the steady state: no update in flight.
	PhaseIdle Phase = ""

	// PhaseResetting means the workspace build artifacts were being removed.
	PhaseResetting Phase = "resetting"

	// PhaseUpdating means the external applier was running.
	PhaseUpdating Phase = "updating"

	// PhaseRestoring means protected files were being copied back into
	// the workspace.
	PhaseRestoring Phase = "restoring"
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	if p == PhaseIdle {
		return "idle"
	}
	return string(p)
}

// Flag is the durable update-state record. It is the only state that
// survives a crash and the sole signal the next invocation inspects.
//
// The zero Flag means steady state (nothing in flight), which is also what
// a missing flag file decodes to on a first-ever run.
//
// Field names are snake_case on disk for compatibility with state files
// written by previous stationup versions.
type Flag struct {
	// Phase is the step the run had reached when the flag was written.
	Phase Phase `json:"phase"`

	// RunID identifies the run that wrote the flag.
	RunID string `json:"run_id,omitempty"`

	// StartedAt is when the run that wrote the flag began.
	StartedAt time.Time `json:"started_at,omitempty"`

	// UpdatedAt is when the flag was last written.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// InProgress reports whether a prior run was left mid-flight. Any recorded
// phase other than idle counts: recovery policy is coarse (skip the next
// backup), not phase-precise.
func (f Flag) InProgress() bool {
	return f.Phase != PhaseIdle
}

// Advance returns a copy of the flag moved to the given phase with the
// update timestamp refreshed.
func (f Flag) Advance(p Phase, now time.Time) Flag {
	f.Phase = p
	f.UpdatedAt = now
	return f
}
