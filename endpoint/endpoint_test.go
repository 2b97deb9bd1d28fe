package endpoint

import (
	"testing"

	"github.com/ardnew/usbipbus/wire"
	"github.com/stretchr/testify/assert"
)

func TestNewEndpoint_DefaultsStalledWithNoPipes(t *testing.T) {
	ep := newEndpoint()
	assert.True(t, ep.Stalled)
	assert.False(t, ep.HasIn())
	assert.False(t, ep.HasOut())
	assert.False(t, ep.IsRTS())
}

func TestEndpoint_PendingInFIFO(t *testing.T) {
	ep := newEndpoint()
	ep.EnqueuePendingIn(PendingIn{Header: wire.URBHeader{SeqNum: 1}})
	ep.EnqueuePendingIn(PendingIn{Header: wire.URBHeader{SeqNum: 2}})

	p, ok := ep.PopPendingIn()
	assert.True(t, ok)
	assert.Equal(t, uint32(1), p.Header.SeqNum)

	p, ok = ep.PopPendingIn()
	assert.True(t, ok)
	assert.Equal(t, uint32(2), p.Header.SeqNum)

	_, ok = ep.PopPendingIn()
	assert.False(t, ok)
}

func TestEndpoint_Unlink(t *testing.T) {
	ep := newEndpoint()
	ep.EnqueuePendingIn(PendingIn{Header: wire.URBHeader{SeqNum: 1}})
	ep.EnqueuePendingIn(PendingIn{Header: wire.URBHeader{SeqNum: 2}})
	ep.EnqueuePendingIn(PendingIn{Header: wire.URBHeader{SeqNum: 3}})

	assert.True(t, ep.unlink(2))
	assert.False(t, ep.unlink(2), "unlinking twice is a no-op, not an error")

	p, ok := ep.PopPendingIn()
	assert.True(t, ok)
	assert.Equal(t, uint32(1), p.Header.SeqNum)

	p, ok = ep.PopPendingIn()
	assert.True(t, ok)
	assert.Equal(t, uint32(3), p.Header.SeqNum)
}

func TestEndpoint_IsRTS(t *testing.T) {
	ep := newEndpoint()
	ep.In = NewPipe(TypeInterrupt, 8, 10)
	assert.False(t, ep.IsRTS())

	ep.In.Push([]byte{1})
	assert.True(t, ep.IsRTS())
}
