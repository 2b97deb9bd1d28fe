package endpoint

import "github.com/ardnew/usbipbus/wire"

// NumEndpoints is the fixed endpoint table size.
const NumEndpoints = 8

// Direction selects which pipe of an [Endpoint] an operation targets.
type Direction uint8

// Endpoint directions.
const (
	DirectionOut Direction = iota
	DirectionIn
)

// PendingIn is a queued IN URB awaiting data: the request that
// triggered it, kept verbatim so its seqnum/ep/transfer_buffer_length
// can be used once the pipe becomes ready-to-send.
type PendingIn struct {
	Header wire.URBHeader
	Submit wire.CmdSubmitBody
}

// Endpoint is a pair of optional pipes (in, out) plus the flags and
// pending-IN queue attached to them. An endpoint built by newEndpoint
// is fully unconfigured: both pipes absent and Stalled true, matching
// the "stalled by default before configuration" invariant. (The Go
// zero value has Stalled false.)
type Endpoint struct {
	In  *Pipe
	Out *Pipe

	Stalled        bool
	SetupFlag      bool
	InCompleteFlag bool

	pendingIns []PendingIn
}

// newEndpoint returns a freshly reset endpoint.
func newEndpoint() Endpoint {
	return Endpoint{Stalled: true}
}

// HasIn reports whether the IN pipe is configured.
func (e *Endpoint) HasIn() bool { return e.In != nil }

// HasOut reports whether the OUT pipe is configured.
func (e *Endpoint) HasOut() bool { return e.Out != nil }

// IsRTS reports whether the endpoint's IN pipe is ready-to-send.
func (e *Endpoint) IsRTS() bool {
	return e.In != nil && e.In.IsRTS()
}

// EnqueuePendingIn appends a pending IN URB to the endpoint's FIFO
// queue.
func (e *Endpoint) EnqueuePendingIn(p PendingIn) {
	e.pendingIns = append(e.pendingIns, p)
}

// PopPendingIn removes and returns the oldest pending IN URB, or
// (PendingIn{}, false) if none are queued.
func (e *Endpoint) PopPendingIn() (PendingIn, bool) {
	if len(e.pendingIns) == 0 {
		return PendingIn{}, false
	}
	p := e.pendingIns[0]
	e.pendingIns = e.pendingIns[1:]
	return p, true
}

// unlink removes the first pending IN URB with the given seqnum.
// Returns true if one was removed.
func (e *Endpoint) unlink(seqnum uint32) bool {
	for i, p := range e.pendingIns {
		if p.Header.SeqNum == seqnum {
			e.pendingIns = append(e.pendingIns[:i], e.pendingIns[i+1:]...)
			return true
		}
	}
	return false
}
