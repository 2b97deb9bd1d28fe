package endpoint

import (
	"testing"

	"github.com/ardnew/usbipbus/pkg"
	"github.com/ardnew/usbipbus/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_NewIsAllStalled(t *testing.T) {
	tbl := NewTable()
	for i := 0; i < NumEndpoints; i++ {
		assert.True(t, tbl.IsStalled(i))
	}
}

func TestTable_AllocateInvalidIndex(t *testing.T) {
	tbl := NewTable()
	err := tbl.Allocate(NumEndpoints, DirectionIn, TypeBulk, 64, 0)
	assert.ErrorIs(t, err, pkg.ErrInvalidEndpoint)
}

func TestTable_AllocateClearsStall(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Allocate(1, DirectionIn, TypeInterrupt, 8, 10))
	assert.False(t, tbl.IsStalled(1))
	assert.True(t, tbl.Get(1).HasIn())
	assert.False(t, tbl.Get(1).HasOut())
}

func TestTable_PushPopOut(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Allocate(2, DirectionOut, TypeBulk, 64, 0))

	require.NoError(t, tbl.PushOut(2, []byte("hello")))
	packet, ok := tbl.PopOut(2)
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), packet)

	_, ok = tbl.PopOut(2)
	assert.False(t, ok)
}

func TestTable_PushOutUnconfigured(t *testing.T) {
	tbl := NewTable()
	err := tbl.PushOut(3, []byte("x"))
	assert.ErrorIs(t, err, pkg.ErrInvalidEndpoint)
}

func TestTable_PushInAndRTS(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Allocate(1, DirectionIn, TypeInterrupt, 8, 10))

	assert.False(t, tbl.IsRTS(1))
	require.NoError(t, tbl.PushIn(1, []byte{1, 2, 3}))
	assert.True(t, tbl.IsRTS(1))
}

func TestTable_PendingInQueueAndUnlink(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Allocate(1, DirectionIn, TypeInterrupt, 8, 10))

	require.NoError(t, tbl.EnqueuePendingIn(1, PendingIn{Header: wire.URBHeader{SeqNum: 10}}))
	require.NoError(t, tbl.EnqueuePendingIn(1, PendingIn{Header: wire.URBHeader{SeqNum: 11}}))

	assert.True(t, tbl.Unlink(10))
	assert.False(t, tbl.Unlink(10))

	p, ok := tbl.PopPendingIn(1)
	assert.True(t, ok)
	assert.Equal(t, uint32(11), p.Header.SeqNum)
}

func TestTable_UnlinkAcrossEndpoints(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Allocate(1, DirectionIn, TypeInterrupt, 8, 10))
	require.NoError(t, tbl.Allocate(5, DirectionIn, TypeBulk, 64, 0))

	require.NoError(t, tbl.EnqueuePendingIn(1, PendingIn{Header: wire.URBHeader{SeqNum: 1}}))
	require.NoError(t, tbl.EnqueuePendingIn(5, PendingIn{Header: wire.URBHeader{SeqNum: 2}}))

	assert.True(t, tbl.Unlink(2), "unlink must scan every endpoint, not just the first")
	_, ok := tbl.PopPendingIn(5)
	assert.False(t, ok)
}

func TestTable_Reset(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Allocate(1, DirectionIn, TypeInterrupt, 8, 10))
	require.NoError(t, tbl.PushIn(1, []byte{1}))

	tbl.Reset()
	assert.True(t, tbl.IsStalled(1))
	assert.False(t, tbl.Get(1).HasIn())
}

func TestTable_SetStall(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Allocate(1, DirectionOut, TypeBulk, 64, 0))
	assert.False(t, tbl.IsStalled(1))

	require.NoError(t, tbl.SetStall(1, true))
	assert.True(t, tbl.IsStalled(1))
}

func TestTable_GetOutOfRange(t *testing.T) {
	tbl := NewTable()
	assert.Nil(t, tbl.Get(-1))
	assert.Nil(t, tbl.Get(NumEndpoints))
}
