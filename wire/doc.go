// Package wire implements the USB/IP wire codec: the OP sub-protocol
// (device list/import) and the URB sub-protocol (SUBMIT/UNLINK and
// their RET_* replies).
//
// All multi-byte numeric fields are big-endian, matching the Linux
// USB/IP kernel protocol. Every frame type has a fixed size (see the
// Size constants) and a pair of zero-allocation functions:
//
//	func EncodeX(x *X, buf []byte) int        // returns bytes written, 0 if buf too small
//	func DecodeX(data []byte, out *X) error   // populates out, or returns a decode error
//
// The codec is stateless: it never blocks, retains no state between
// calls, and performs no I/O. [github.com/ardnew/usbipbus/conn] is
// responsible for framing (deciding how many bytes to read before
// calling a Decode function).
package wire
