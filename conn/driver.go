package conn

import (
	"errors"
	"net"
	"time"

	"github.com/ardnew/usbipbus/pkg"
	"golang.org/x/sync/semaphore"
)

// DefaultAddress is the listen address used when an embedder does not
// override it.
const DefaultAddress = "127.0.0.1:3240"

// Listener owns the TCP socket and admits at most one active peer at
// a time. A weighted semaphore of size 1 is the gate: PollAccept only
// attempts an accept while the slot is free, and the slot is released
// when the peer is dropped.
type Listener struct {
	ln   *net.TCPListener
	slot *semaphore.Weighted
	peer *Conn
}

// Listen binds addr and returns a Listener ready for non-blocking
// PollAccept calls.
func Listen(addr string) (*Listener, error) {
	a, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}
	ln, err := net.ListenTCP("tcp", a)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln, slot: semaphore.NewWeighted(1)}, nil
}

// Close releases the listening socket and any active peer.
func (l *Listener) Close() error {
	if l.peer != nil {
		l.peer.Close()
		l.peer = nil
	}
	return l.ln.Close()
}

// Peer returns the currently attached connection, or nil if none.
func (l *Listener) Peer() *Conn {
	return l.peer
}

// Addr returns the listener's bound address, useful when Listen was
// given a ":0" wildcard port.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// PollAccept makes a single non-blocking attempt to accept a new
// peer. It is a no-op if a peer is already attached. It reports
// whether a new peer was accepted.
func (l *Listener) PollAccept() (bool, error) {
	if l.peer != nil {
		return false, nil
	}
	if !l.slot.TryAcquire(1) {
		return false, nil
	}

	if err := l.ln.SetDeadline(time.Now()); err != nil {
		l.slot.Release(1)
		return false, err
	}
	nc, err := l.ln.AcceptTCP()
	if err != nil {
		l.slot.Release(1)
		if isTimeout(err) {
			return false, nil
		}
		return false, err
	}

	pkg.LogInfo(pkg.ComponentConn, "peer accepted", "remote", nc.RemoteAddr())
	l.peer = newConn(nc, l.slot)
	return true, nil
}

// DropPeer closes the current peer, if any, and frees the accept
// slot so PollAccept may admit a new one.
func (l *Listener) DropPeer() {
	if l.peer == nil {
		return
	}
	l.peer.Close()
	l.peer = nil
}

// Conn wraps one accepted TCP peer connection plus the partial-frame
// assembly state for the OP and URB sub-protocols.
type Conn struct {
	nc   *net.TCPConn
	slot *semaphore.Weighted

	op  opAssembler
	urb urbAssembler
}

func newConn(nc *net.TCPConn, slot *semaphore.Weighted) *Conn {
	nc.SetNoDelay(true)
	return &Conn{nc: nc, slot: slot}
}

// Close closes the underlying socket and releases the accept slot.
func (c *Conn) Close() error {
	err := c.nc.Close()
	c.slot.Release(1)
	return err
}

// Write blocking-writes the entire buffer to the peer. A write
// failure is fatal to the connection: callers must drop the peer.
func (c *Conn) Write(b []byte) error {
	total := 0
	for total < len(b) {
		n, err := c.nc.Write(b[total:])
		if err != nil {
			return err
		}
		total += n
	}
	return nil
}

// tryReadInto attempts one non-blocking read into buf[off:], growing
// off by however many bytes actually arrived. It reports
// [pkg.ErrConnectionClosed] on peer EOF and on any other socket read
// error that is not a timeout. A deadline-exceeded read reports
// (off, nil): no frame yet.
func (c *Conn) tryReadInto(buf []byte, off int) (int, error) {
	if off >= len(buf) {
		return off, nil
	}
	if err := c.nc.SetReadDeadline(time.Now()); err != nil {
		return off, err
	}
	n, err := c.nc.Read(buf[off:])
	off += n
	if err != nil {
		if isTimeout(err) {
			return off, nil
		}
		return off, pkg.ErrConnectionClosed
	}
	return off, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
