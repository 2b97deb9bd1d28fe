package conn

import (
	"github.com/ardnew/usbipbus/wire"
)

// OpRequest is a fully assembled OP-phase request: a header plus,
// for IMPORT, the 32-byte bus_id that follows it.
type OpRequest struct {
	Header wire.OpHeader
	BusID  string
}

// opStage tracks how much of an OP request has been assembled.
type opStage uint8

const (
	opStageHeader opStage = iota
	opStageBusID
)

type opAssembler struct {
	stage  opStage
	buf    []byte
	off    int
	header wire.OpHeader
}

func (a *opAssembler) reset() {
	a.stage = opStageHeader
	a.buf = nil
	a.off = 0
}

// TryReadOp makes a single non-blocking attempt to advance assembly
// of an OP request. It returns (nil, nil) when no complete request is
// available yet.
func (c *Conn) TryReadOp() (*OpRequest, error) {
	a := &c.op
	if a.buf == nil {
		a.buf = make([]byte, wire.OpHeaderSize)
		a.off = 0
		a.stage = opStageHeader
	}

	off, err := c.tryReadInto(a.buf, a.off)
	a.off = off
	if err != nil {
		a.reset()
		return nil, err
	}
	if a.off < len(a.buf) {
		return nil, nil
	}

	switch a.stage {
	case opStageHeader:
		var hdr wire.OpHeader
		if err := wire.DecodeOpHeader(a.buf, &hdr); err != nil {
			a.reset()
			return nil, err
		}
		a.header = hdr
		if hdr.Command == wire.OpCmdImportDevice {
			a.stage = opStageBusID
			a.buf = make([]byte, wire.OpImportRequestSize)
			a.off = 0
			return nil, nil
		}
		a.reset()
		return &OpRequest{Header: hdr}, nil

	case opStageBusID:
		busID, err := wire.DecodeBusID(a.buf)
		if err != nil {
			a.reset()
			return nil, err
		}
		hdr := a.header
		a.reset()
		return &OpRequest{Header: hdr, BusID: busID}, nil
	}
	panic("unreachable")
}

// URBRequest is a fully assembled URB-phase request. Submit and
// Unlink are mutually exclusive, selected by Header.Command; Payload
// is populated only for a CMD_SUBMIT with Direction==DirOut and a
// non-zero transfer length.
type URBRequest struct {
	Header  wire.URBHeader
	Submit  wire.CmdSubmitBody
	Unlink  wire.CmdUnlinkBody
	Payload []byte
}

type urbStage uint8

const (
	urbStageHeader urbStage = iota
	urbStageBody
	urbStagePayload
)

type urbAssembler struct {
	stage  urbStage
	buf    []byte
	off    int
	header wire.URBHeader
	submit wire.CmdSubmitBody
}

func (a *urbAssembler) reset() {
	a.stage = urbStageHeader
	a.buf = nil
	a.off = 0
}

// TryReadURB makes a single non-blocking attempt to advance assembly
// of a URB request. It returns (nil, nil) when no complete request is
// available yet.
func (c *Conn) TryReadURB() (*URBRequest, error) {
	a := &c.urb
	if a.buf == nil {
		a.buf = make([]byte, wire.URBHeaderSize)
		a.off = 0
		a.stage = urbStageHeader
	}

	off, err := c.tryReadInto(a.buf, a.off)
	a.off = off
	if err != nil {
		a.reset()
		return nil, err
	}
	if a.off < len(a.buf) {
		return nil, nil
	}

	switch a.stage {
	case urbStageHeader:
		var hdr wire.URBHeader
		if err := wire.DecodeURBHeader(a.buf, &hdr); err != nil {
			a.reset()
			return nil, err
		}
		a.header = hdr
		a.stage = urbStageBody
		bodySize := wire.CmdSubmitBodySize
		if hdr.Command == wire.CmdUnlink {
			bodySize = wire.CmdUnlinkBodySize
		}
		a.buf = make([]byte, bodySize)
		a.off = 0
		return nil, nil

	case urbStageBody:
		hdr := a.header
		if hdr.Command == wire.CmdUnlink {
			var unlink wire.CmdUnlinkBody
			if err := wire.DecodeCmdUnlinkBody(a.buf, &unlink); err != nil {
				a.reset()
				return nil, err
			}
			a.reset()
			return &URBRequest{Header: hdr, Unlink: unlink}, nil
		}

		var submit wire.CmdSubmitBody
		if err := wire.DecodeCmdSubmitBody(a.buf, &submit); err != nil {
			a.reset()
			return nil, err
		}
		if hdr.Direction == wire.DirOut && submit.TransferBufferLength > 0 {
			a.submit = submit
			a.stage = urbStagePayload
			a.buf = make([]byte, submit.TransferBufferLength)
			a.off = 0
			return nil, nil
		}
		a.reset()
		return &URBRequest{Header: hdr, Submit: submit}, nil

	case urbStagePayload:
		hdr := a.header
		submit := a.submit
		payload := a.buf
		a.reset()
		return &URBRequest{Header: hdr, Submit: submit, Payload: payload}, nil
	}
	panic("unreachable")
}
