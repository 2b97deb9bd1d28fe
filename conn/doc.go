// Package conn owns the TCP listener and the single active peer
// connection a bus talks to. Every read is a single non-blocking
// attempt: a deadline of time.Now() turns the read into a poll, and a
// timeout is reported as "no frame yet" rather than an error. Frame
// assembly that spans more than one poll tick (a header read on one
// tick, its continuation on the next) is tracked internally so the
// caller only ever sees three outcomes per call: a complete frame, no
// frame yet, or a terminal error.
//
// Writes are plain blocking write-alls: reply frames are small and
// bounded, so the bus's single mutex is held across them without risk
// of an unbounded stall.
package conn
