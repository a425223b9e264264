// Package transport models the location-transparent addressing the
// hierarchical steal protocol needs (spec.md §4.4: "same-host peer" vs
// "remote-host representative") without any real networking, since
// sockets/RPC are out of scope (spec.md Non-goals). A Handle identifies
// a worker by logical host and a worker index (fleet.Build uses the
// worker's fleet-wide index); a System is an in-process registry
// mapping handles to the Peer values registered under them.
// The identity scheme is grounded on the teacher's corpus' use of
// google/uuid for addressable work units (other_examples
// ehsanshojaeiiii-sms-gateway worker pool).
package transport

import "github.com/google/uuid"

// Handle addresses a single worker within the simulated fleet.
type Handle struct {
	ID       uuid.UUID
	HostID   int
	WorkerID int
}

// NewHandle allocates a fresh, globally unique Handle for (hostID, workerID).
func NewHandle(hostID, workerID int) Handle {
	return Handle{ID: uuid.New(), HostID: hostID, WorkerID: workerID}
}

func (h Handle) String() string {
	return h.ID.String()
}

// SameHost reports whether h and other are simulated as living on the
// same logical host — the boundary the steal protocol's first ring
// probes before escalating to remote hosts (spec.md §4.4).
func (h Handle) SameHost(other Handle) bool {
	return h.HostID == other.HostID
}
