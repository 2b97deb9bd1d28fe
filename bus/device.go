package bus

import (
	"github.com/ardnew/usbipbus/endpoint"
	"github.com/ardnew/usbipbus/pkg"
)

// Status is the classification [Bus.Poll] returns after performing
// its one iteration of network work.
type Status int

const (
	// StatusNone indicates no event worth reporting occurred.
	StatusNone Status = iota
	// StatusReset indicates the bus is awaiting a fresh IMPORT.
	StatusReset
	// StatusSuspend indicates the bus is currently suspended.
	StatusSuspend
	// StatusData indicates at least one endpoint event mask is non-zero.
	StatusData
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusNone:
		return "None"
	case StatusReset:
		return "Reset"
	case StatusSuspend:
		return "Suspend"
	case StatusData:
		return "Data"
	default:
		return "Unknown"
	}
}

// Event carries the three cleared-on-read endpoint masks built by a
// StatusData poll result. Bit i of each mask corresponds to endpoint
// index i.
type Event struct {
	EpOut        uint16
	EpInComplete uint16
	EpSetup      uint16
}

// AllocEndpoint allocates the pipe for (index, dir) with the given
// transfer type, max packet size, and polling interval.
func (b *Bus) AllocEndpoint(index int, dir endpoint.Direction, typ endpoint.Type, maxPacketSize uint16, interval uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.table.Allocate(index, dir, typ, maxPacketSize, interval)
}

// Enable is a logging-only transition; the bus has no separate
// enabled/disabled state of its own.
func (b *Bus) Enable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	pkg.LogDebug(pkg.ComponentBus, "bus enabled")
}

// Reset resets the endpoint table and re-enters Reset state. It is a
// no-op unless the bus is currently Attached.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reset {
		return
	}
	b.table.Reset()
	b.reset = true
	pkg.LogInfo(pkg.ComponentBus, "bus reset by device surface")
}

// SetDeviceAddress stores the address assigned by a SET_ADDRESS
// request.
func (b *Bus) SetDeviceAddress(addr uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deviceAddress = addr
}

// DeviceAddress returns the most recently stored device address.
func (b *Bus) DeviceAddress() uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deviceAddress
}

// Write appends data to endpoint index's IN pipe. For endpoint 0 it
// speculatively sets in_complete_flag first; if the pipe was already
// ready-to-send, the flag is cleared back and [pkg.ErrWouldBlock] is
// returned without mutating the pipe, since the pending transaction
// has not yet been drained by the host. Otherwise the packet is
// appended and, if the pipe becomes ready-to-send, the pending IN
// queue is serviced immediately.
func (b *Bus) Write(index int, data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ln.Peer() == nil {
		return 0, pkg.ErrWouldBlock
	}

	ep := b.table.Get(index)
	if ep == nil || ep.In == nil {
		return 0, pkg.ErrInvalidEndpoint
	}

	if index == 0 {
		ep.InCompleteFlag = true
		if ep.In.IsRTS() {
			ep.InCompleteFlag = false
			return 0, pkg.ErrWouldBlock
		}
	}

	ep.In.Push(append([]byte(nil), data...))
	if ep.In.IsRTS() {
		b.trySendPending(b.ln.Peer(), index)
	}
	return len(data), nil
}

// Read pops one OUT packet from endpoint index and copies
// min(len(buf), len(packet)) bytes into buf. The full packet length
// is returned so the caller can detect truncation.
func (b *Bus) Read(index int, buf []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ep := b.table.Get(index)
	if ep == nil || ep.Out == nil {
		return 0, pkg.ErrInvalidEndpoint
	}

	packet, ok := ep.Out.Pop()
	if !ok {
		return 0, pkg.ErrWouldBlock
	}
	copy(buf, packet)
	return len(packet), nil
}

// SetStalled sets or clears the stall condition on endpoint index.
func (b *Bus) SetStalled(index int, stalled bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.table.SetStall(index, stalled)
}

// IsStalled reports whether endpoint index is currently stalled.
func (b *Bus) IsStalled(index int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.table.IsStalled(index)
}

// Suspend sets the Suspended overlay without changing Reset/Attached.
func (b *Bus) Suspend() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suspended = true
}

// Resume clears the Suspended overlay.
func (b *Bus) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suspended = false
}

// Poll performs one iteration of network work, then classifies and
// returns the bus's current status. When the status is [StatusData],
// event carries the cleared-on-read endpoint masks; otherwise event
// is the zero value.
func (b *Bus) Poll() (Status, Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.networkTick()

	if b.reset {
		return StatusReset, Event{}
	}
	if b.suspended {
		return StatusSuspend, Event{}
	}

	var ev Event
	for i := 0; i < endpoint.NumEndpoints; i++ {
		ep := b.table.Get(i)
		if ep == nil {
			continue
		}
		if ep.Out != nil && !ep.Out.Empty() {
			ev.EpOut |= 1 << uint(i)
		}
		if ep.InCompleteFlag {
			ev.EpInComplete |= 1 << uint(i)
			ep.InCompleteFlag = false
		}
		if ep.SetupFlag {
			ev.EpSetup |= 1 << uint(i)
			ep.SetupFlag = false
		}
	}

	if ev.EpOut == 0 && ev.EpInComplete == 0 && ev.EpSetup == 0 {
		return StatusNone, Event{}
	}
	return StatusData, ev
}
