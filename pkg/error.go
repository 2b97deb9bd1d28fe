package pkg

import "errors"

// Device-surface errors. These are returned to the class
// driver that sits on top of a [Bus] and never propagate to the wire.
var (
	// ErrInvalidEndpoint indicates an endpoint address that is out of
	// range or was never allocated.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrEndpointMemoryOverflow indicates no free endpoint slot was
	// available to satisfy an unconstrained allocation request.
	ErrEndpointMemoryOverflow = errors.New("endpoint memory overflow")

	// ErrWouldBlock indicates an operation could not complete without
	// blocking and must be retried by the caller.
	ErrWouldBlock = errors.New("would block")

	// ErrBufferOverflow indicates a caller-provided buffer was too
	// small to hold the available data.
	ErrBufferOverflow = errors.New("buffer overflow")
)

// Connection and lifecycle errors.
var (
	// ErrConnectionClosed indicates the peer closed the TCP connection.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrProtocolError indicates malformed or unexpected wire content.
	ErrProtocolError = errors.New("protocol error")

	// ErrNotConfigured indicates an operation was attempted before the
	// underlying resource (socket, endpoint) was initialized.
	ErrNotConfigured = errors.New("not configured")

	// ErrAlreadyRunning indicates a component was started twice.
	ErrAlreadyRunning = errors.New("already running")

	// ErrBusy indicates the resource is already in use.
	ErrBusy = errors.New("resource busy")
)
