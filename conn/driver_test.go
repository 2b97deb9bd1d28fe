package conn

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestListener(t *testing.T) (*Listener, string) {
	t.Helper()
	l, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, l.ln.Addr().String()
}

func dialAndAccept(t *testing.T, l *Listener, addr string) (net.Conn, *Conn) {
	t.Helper()
	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.Eventually(t, func() bool {
		ok, err := l.PollAccept()
		require.NoError(t, err)
		return ok
	}, time.Second, time.Millisecond)

	return client, l.Peer()
}

func TestListener_PollAcceptNoPendingConnection(t *testing.T) {
	l, _ := newTestListener(t)
	ok, err := l.PollAccept()
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, l.Peer())
}

func TestListener_PollAcceptAdmitsOnePeer(t *testing.T) {
	l, addr := newTestListener(t)
	_, peer := dialAndAccept(t, l, addr)
	assert.NotNil(t, peer)

	// Idempotent once a peer is attached: another dial does not
	// preempt the current one.
	second, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer second.Close()

	time.Sleep(10 * time.Millisecond)
	ok, err := l.PollAccept()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestListener_DropPeerFreesSlot(t *testing.T) {
	l, addr := newTestListener(t)
	_, _ = dialAndAccept(t, l, addr)
	l.DropPeer()
	assert.Nil(t, l.Peer())

	_, peer := dialAndAccept(t, l, addr)
	assert.NotNil(t, peer)
}

func TestConn_WriteAndReadRoundTrip(t *testing.T) {
	l, addr := newTestListener(t)
	client, peer := dialAndAccept(t, l, addr)

	msg := []byte("hello bus")
	_, err := client.Write(msg)
	require.NoError(t, err)

	var got []byte
	require.Eventually(t, func() bool {
		buf := make([]byte, len(msg))
		off, err := peer.tryReadInto(buf, 0)
		require.NoError(t, err)
		if off == len(msg) {
			got = buf
			return true
		}
		return false
	}, time.Second, time.Millisecond)

	assert.Equal(t, msg, got)
}

func TestConn_WriteBlockingWriteAll(t *testing.T) {
	l, addr := newTestListener(t)
	client, peer := dialAndAccept(t, l, addr)

	payload := make([]byte, 4096)
	require.NoError(t, peer.Write(payload))

	readBack := make([]byte, len(payload))
	_, err := readFull(client, readBack)
	require.NoError(t, err)
	assert.Equal(t, payload, readBack)
}

func readFull(c net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := c.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
