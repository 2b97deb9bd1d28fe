// Package bus implements the USB/IP device-side state machine: it
// owns a [conn.Listener] and an [endpoint.Table] behind a single
// mutex, translates OP- and URB-phase wire frames into endpoint
// mutations, and exposes the device-facing surface a local USB class
// driver polls and writes through.
//
// Everything in this package runs from one logical actor: the class
// driver's calls to [Bus.Poll] are the only place network I/O
// happens, and every other device-facing method takes the same lock
// Poll does. There is no background goroutine driving the socket.
package bus
