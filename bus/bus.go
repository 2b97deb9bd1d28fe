package bus

import (
	"sync"

	"github.com/ardnew/usbipbus/conn"
	"github.com/ardnew/usbipbus/endpoint"
	"github.com/ardnew/usbipbus/pkg"
	"github.com/ardnew/usbipbus/wire"
)

const (
	exportedPath  = "/sys/devices/pci0000:00/0000:00:01.2/usb1/1-1"
	exportedBusID = "1-1"
	exportedBus   = 1
	exportedDev   = 2
)

// Bus is the device-side USB/IP state machine. It owns the endpoint
// table, the connection driver, and the Reset/Attached/Suspended
// state, all behind a single mutex.
type Bus struct {
	mu sync.Mutex

	table *endpoint.Table
	ln    *conn.Listener
	desc  descriptor

	deviceAddress uint8
	reset         bool
	suspended     bool
}

// New binds the listen address and returns a Bus in its initial
// Reset state.
func New(opts ...Option) (*Bus, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ln, err := conn.Listen(cfg.listenAddress)
	if err != nil {
		return nil, err
	}

	return &Bus{
		table: endpoint.NewTable(),
		ln:    ln,
		desc:  cfg.descriptor,
		reset: true,
	}, nil
}

// Close shuts down the listener and any attached peer.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ln.Close()
}

// networkTick performs the single iteration of network work the
// device-facing poll describes: a non-blocking accept attempt, then
// exactly one try-read-and-handle appropriate to the current state.
// Must be called with mu held.
func (b *Bus) networkTick() {
	if _, err := b.ln.PollAccept(); err != nil {
		pkg.LogWarn(pkg.ComponentBus, "accept failed", "error", err)
	}

	peer := b.ln.Peer()
	if peer == nil {
		return
	}

	if b.reset {
		b.handleOp(peer)
		return
	}
	b.handleURB(peer)
}

func (b *Bus) handleOp(peer *conn.Conn) {
	req, err := peer.TryReadOp()
	if err != nil {
		b.dropPeer(err)
		return
	}
	if req == nil {
		return
	}

	switch req.Header.Command {
	case wire.OpCmdListDevices:
		b.replyList(peer, req.Header.Version)
	case wire.OpCmdImportDevice:
		b.replyImport(peer, req.Header.Version)
		b.reset = false
		pkg.LogInfo(pkg.ComponentBus, "device attached", "busID", req.BusID)
	default:
		b.dropPeer(&wire.InvalidCommandError{Code: uint32(req.Header.Command)})
	}
}

func (b *Bus) handleURB(peer *conn.Conn) {
	req, err := peer.TryReadURB()
	if err != nil {
		b.dropPeer(err)
		return
	}
	if req == nil {
		return
	}

	switch req.Header.Command {
	case wire.CmdSubmit:
		if req.Header.Direction == wire.DirOut {
			b.handleSubmitOut(peer, req)
		} else {
			b.handleSubmitIn(peer, req)
		}
	case wire.CmdUnlink:
		b.handleUnlink(peer, req)
	default:
		b.dropPeer(&wire.InvalidCommandError{Code: req.Header.Command})
	}
}

// dropPeer closes the current peer and re-enters Reset, zeroing the
// endpoint table and stalling every pipe.
func (b *Bus) dropPeer(err error) {
	pkg.LogInfo(pkg.ComponentBus, "peer dropped", "error", err)
	b.ln.DropPeer()
	b.reset = true
	b.table.Reset()
}

func (b *Bus) replyList(peer *conn.Conn, version uint16) {
	buf := make([]byte, wire.OpHeaderSize+4+wire.OpPathSize+wire.OpBusIDSize+wire.OpDeviceDescriptorSize+wire.OpInterfaceDescriptorSize)
	off := 0

	hdr := wire.OpHeader{Version: version, Command: wire.OpReplyListDevices}
	off += wire.EncodeOpHeader(&hdr, buf[off:])

	off += encodeU32BE(buf[off:], 1)

	if !wire.EncodePath(exportedPath, buf[off:off+wire.OpPathSize]) {
		pkg.LogWarn(pkg.ComponentBus, "exported path too long for wire field")
	}
	off += wire.OpPathSize

	if !wire.EncodeBusID(exportedBusID, buf[off:off+wire.OpBusIDSize]) {
		pkg.LogWarn(pkg.ComponentBus, "exported bus_id too long for wire field")
	}
	off += wire.OpBusIDSize

	off += wire.EncodeOpDeviceDescriptor(b.deviceDescriptor(), buf[off:])

	ifaceDesc := wire.OpInterfaceDescriptor{InterfaceClass: b.desc.class, InterfaceSubClass: b.desc.subClass, InterfaceProtocol: b.desc.protocol}
	wire.EncodeOpInterfaceDescriptor(&ifaceDesc, buf[off:])

	if err := peer.Write(buf); err != nil {
		b.dropPeer(err)
	}
}

func (b *Bus) replyImport(peer *conn.Conn, version uint16) {
	buf := make([]byte, wire.OpHeaderSize+wire.OpPathSize+wire.OpBusIDSize+wire.OpDeviceDescriptorSize)
	off := 0

	hdr := wire.OpHeader{Version: version, Command: wire.OpReplyImportDevice}
	off += wire.EncodeOpHeader(&hdr, buf[off:])

	if !wire.EncodePath(exportedPath, buf[off:off+wire.OpPathSize]) {
		pkg.LogWarn(pkg.ComponentBus, "exported path too long for wire field")
	}
	off += wire.OpPathSize

	if !wire.EncodeBusID(exportedBusID, buf[off:off+wire.OpBusIDSize]) {
		pkg.LogWarn(pkg.ComponentBus, "exported bus_id too long for wire field")
	}
	off += wire.OpBusIDSize

	wire.EncodeOpDeviceDescriptor(b.deviceDescriptor(), buf[off:])

	if err := peer.Write(buf); err != nil {
		b.dropPeer(err)
	}
}

func (b *Bus) deviceDescriptor() *wire.OpDeviceDescriptor {
	return &wire.OpDeviceDescriptor{
		BusNum:             exportedBus,
		DevNum:             exportedDev,
		Speed:              b.desc.speed,
		VendorID:           b.desc.vendorID,
		ProductID:          b.desc.productID,
		DeviceVersion:      b.desc.deviceVersion,
		DeviceClass:        b.desc.class,
		DeviceSubClass:     b.desc.subClass,
		DeviceProtocol:     b.desc.protocol,
		ConfigurationValue: 0,
		NumConfigurations:  1,
		NumInterfaces:      1,
	}
}

func encodeU32BE(buf []byte, v uint32) int {
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
	return 4
}

func (b *Bus) handleSubmitOut(peer *conn.Conn, req *conn.URBRequest) {
	ep := b.table.Get(int(req.Header.EP))
	if ep == nil {
		pkg.LogWarn(pkg.ComponentBus, "submit out for unallocated endpoint", "ep", req.Header.EP)
		return
	}

	if req.Submit.HasSetup() && ep.Out != nil {
		ep.Out.Push(append([]byte(nil), req.Submit.Setup[:]...))
		ep.SetupFlag = true
	}

	if ep.Out != nil {
		chunkEndpointPayload(ep.Out, req.Payload)
		if req.Submit.TransferFlags&wire.TransferFlagZeroPacket != 0 && ep.Out.Type == endpoint.TypeBulk {
			ep.Out.Push([]byte{})
		}
	}

	if err := b.sendRetSubmit(peer, req.Header, 0, 0, nil); err != nil {
		b.dropPeer(err)
	}
}

// chunkEndpointPayload splits payload into max_packet_size pieces (the
// last possibly shorter) and pushes each in order onto pipe.
func chunkEndpointPayload(pipe *endpoint.Pipe, payload []byte) {
	if len(payload) == 0 {
		return
	}
	mps := int(pipe.MaxPacketSize)
	if mps <= 0 {
		mps = len(payload)
	}
	for off := 0; off < len(payload); off += mps {
		end := off + mps
		if end > len(payload) {
			end = len(payload)
		}
		chunk := make([]byte, end-off)
		copy(chunk, payload[off:end])
		pipe.Push(chunk)
	}
}

func (b *Bus) handleSubmitIn(peer *conn.Conn, req *conn.URBRequest) {
	epIdx := int(req.Header.EP)
	ep := b.table.Get(epIdx)
	if ep == nil {
		pkg.LogWarn(pkg.ComponentBus, "submit in for unallocated endpoint", "ep", req.Header.EP)
		return
	}

	b.table.EnqueuePendingIn(epIdx, endpoint.PendingIn{Header: req.Header, Submit: req.Submit})
	b.trySendPending(peer, epIdx)
}

func (b *Bus) handleUnlink(peer *conn.Conn, req *conn.URBRequest) {
	b.table.Unlink(req.Unlink.SeqNum)

	var buf [wire.URBHeaderSize + wire.RetUnlinkBodySize]byte
	hdr := wire.URBHeader{Command: wire.CmdRetUnlink, SeqNum: req.Header.SeqNum, DevID: wire.DeviceID, Direction: req.Header.Direction, EP: req.Header.EP}
	n := wire.EncodeURBHeader(&hdr, buf[:])
	body := wire.RetUnlinkBody{Status: 0}
	wire.EncodeRetUnlinkBody(&body, buf[n:])

	if err := peer.Write(buf[:]); err != nil {
		b.dropPeer(err)
	}
}

// trySendPending implements try_send_pending: it pops one pending IN
// URB (if the endpoint is ready-to-send) and drains the IN pipe into
// a response bounded by the popped URB's transfer_buffer_length.
//
// peer may be nil when called from the device-facing surface before
// any host has attached; in that case there is nothing to send to and
// the pending URB is left queued.
func (b *Bus) trySendPending(peer *conn.Conn, epIdx int) {
	if peer == nil {
		return
	}
	ep := b.table.Get(epIdx)
	if ep == nil || !ep.IsRTS() {
		return
	}

	pending, ok := b.table.PopPendingIn(epIdx)
	if !ok {
		return
	}

	bound := int(pending.Submit.TransferBufferLength)
	out := make([]byte, 0, bound)
	for len(out) < bound {
		packet, ok := ep.In.Pop()
		if !ok {
			break
		}
		remaining := bound - len(out)
		if len(packet) > remaining {
			out = append(out, packet[:remaining]...)
			ep.In.PushFront(packet[remaining:])
			break
		}
		out = append(out, packet...)
	}

	ep.InCompleteFlag = true
	if err := b.sendRetSubmit(peer, pending.Header, 0, len(out), out); err != nil {
		b.dropPeer(err)
	}
}

// sendRetSubmit encodes and writes a single RET_SUBMIT frame: the
// 20-byte URB header, the 28-byte RET_SUBMIT body, and (for IN
// transfers) the data payload itself.
func (b *Bus) sendRetSubmit(peer *conn.Conn, req wire.URBHeader, status int32, actualLength int, data []byte) error {
	buf := make([]byte, wire.URBHeaderSize+wire.RetSubmitBodySize+len(data))
	off := 0

	hdr := wire.URBHeader{Command: wire.CmdRetSubmit, SeqNum: req.SeqNum, DevID: wire.DeviceID, Direction: req.Direction, EP: req.EP}
	off += wire.EncodeURBHeader(&hdr, buf[off:])

	body := wire.RetSubmitBody{Status: status, ActualLength: int32(actualLength)}
	off += wire.EncodeRetSubmitBody(&body, buf[off:])

	off += copy(buf[off:], data)

	return peer.Write(buf[:off])
}
