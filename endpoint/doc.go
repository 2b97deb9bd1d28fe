// Package endpoint implements the per-endpoint pipe model: an ordered
// sequence of opaque byte packets per direction, a stall flag,
// setup/in-complete flags, and the pending-IN queue that a [Table]
// uses to answer SUBMIT requests once data becomes available.
//
// Types in this package hold no locks of their own; [bus.Bus] owns a
// [Table] behind its own mutex and is the sole caller of every method
// here, preserving a single-actor-per-endpoint guarantee.
package endpoint
