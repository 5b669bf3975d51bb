package ports

import (
	"context"

	"github.com/openmeteor/stationup/internal/domain"
)

// Tracker persists the interruption flag that records whether an update was
// left mid-flight. The flag is the sole state inspected for crash recovery.
type Tracker interface {
	// Read returns the last recorded flag. A missing or unreadable flag
	// file decodes to the zero flag (steady state), never an error.
	Read(ctx context.Context) domain.Flag

	// Mark writes the flag durably before returning: if the process dies
	// immediately after Mark returns, the on-disk value reflects the call.
	// Implementations must flush both the file and its directory entry.
	Mark(ctx context.Context, flag domain.Flag) error
}
