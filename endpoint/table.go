package endpoint

import "github.com/ardnew/usbipbus/pkg"

// Table is the fixed-size bank of endpoints a bus exposes. Index 0 is
// always the control endpoint; indices 1..7 are configured on demand.
// Table has no internal locking: callers serialize access themselves.
type Table struct {
	endpoints [NumEndpoints]Endpoint
}

// NewTable returns a table with every endpoint reset to its zero
// (stalled, unconfigured) state.
func NewTable() *Table {
	tbl := &Table{}
	tbl.Reset()
	return tbl
}

// Reset restores every endpoint to its unconfigured, stalled state,
// discarding all queued packets and pending IN requests.
func (t *Table) Reset() {
	for i := range t.endpoints {
		t.endpoints[i] = newEndpoint()
	}
}

// Get returns a pointer to the endpoint at index, or nil if index is
// out of range.
func (t *Table) Get(index int) *Endpoint {
	if index < 0 || index >= NumEndpoints {
		return nil
	}
	return &t.endpoints[index]
}

// Allocate configures the pipe for (index, dir) with the given
// transfer type, max packet size, and polling interval, and clears
// the endpoint's stall. It returns [pkg.ErrInvalidEndpoint] if index
// is out of range.
func (t *Table) Allocate(index int, dir Direction, typ Type, maxPacketSize uint16, interval uint8) error {
	ep := t.Get(index)
	if ep == nil {
		return pkg.ErrInvalidEndpoint
	}
	pipe := NewPipe(typ, maxPacketSize, interval)
	switch dir {
	case DirectionIn:
		ep.In = pipe
	case DirectionOut:
		ep.Out = pipe
	}
	ep.Stalled = false
	return nil
}

// PushOut appends a host-to-device packet to endpoint index's OUT
// pipe.
func (t *Table) PushOut(index int, packet []byte) error {
	ep := t.Get(index)
	if ep == nil || ep.Out == nil {
		return pkg.ErrInvalidEndpoint
	}
	ep.Out.Push(packet)
	return nil
}

// PopOut removes and returns the oldest packet queued on endpoint
// index's OUT pipe.
func (t *Table) PopOut(index int) ([]byte, bool) {
	ep := t.Get(index)
	if ep == nil || ep.Out == nil {
		return nil, false
	}
	return ep.Out.Pop()
}

// PushIn appends a device-to-host packet to endpoint index's IN pipe.
func (t *Table) PushIn(index int, packet []byte) error {
	ep := t.Get(index)
	if ep == nil || ep.In == nil {
		return pkg.ErrInvalidEndpoint
	}
	ep.In.Push(packet)
	return nil
}

// IsRTS reports whether endpoint index's IN pipe is ready-to-send.
func (t *Table) IsRTS(index int) bool {
	ep := t.Get(index)
	return ep != nil && ep.IsRTS()
}

// EnqueuePendingIn records a SUBMIT IN request against endpoint
// index, to be serviced once its IN pipe becomes ready-to-send.
func (t *Table) EnqueuePendingIn(index int, p PendingIn) error {
	ep := t.Get(index)
	if ep == nil {
		return pkg.ErrInvalidEndpoint
	}
	ep.EnqueuePendingIn(p)
	return nil
}

// PopPendingIn removes and returns the oldest pending IN request
// queued against endpoint index.
func (t *Table) PopPendingIn(index int) (PendingIn, bool) {
	ep := t.Get(index)
	if ep == nil {
		return PendingIn{}, false
	}
	return ep.PopPendingIn()
}

// SetStall sets or clears the stall condition on endpoint index.
func (t *Table) SetStall(index int, stalled bool) error {
	ep := t.Get(index)
	if ep == nil {
		return pkg.ErrInvalidEndpoint
	}
	ep.Stalled = stalled
	return nil
}

// IsStalled reports whether endpoint index is currently stalled.
func (t *Table) IsStalled(index int) bool {
	ep := t.Get(index)
	return ep == nil || ep.Stalled
}

// Unlink removes a pending IN request by seqnum from whichever
// endpoint holds it. It scans every endpoint linearly: the table is
// small and fixed-size, and unlinks are rare enough that a dedicated
// seqnum index would only add bookkeeping.
func (t *Table) Unlink(seqnum uint32) bool {
	for i := range t.endpoints {
		if t.endpoints[i].unlink(seqnum) {
			return true
		}
	}
	return false
}
