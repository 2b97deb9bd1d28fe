package wire

import "encoding/binary"

// URB command codes.
const (
	CmdSubmit    uint32 = 1
	CmdUnlink    uint32 = 2
	CmdRetSubmit uint32 = 3
	CmdRetUnlink uint32 = 4
)

// Transfer direction, as carried in the URB header: a two-valued tag,
// not bitflags.
const (
	DirOut uint32 = 0
	DirIn  uint32 = 1
)

// TransferFlags bit(s) honored by this implementation. Only
// ZeroPacket is normative; any other bit observed on the wire is
// preserved in CmdSubmitBody.TransferFlags but otherwise ignored.
const (
	TransferFlagZeroPacket uint32 = 0x40
)

// Fixed frame sizes for the URB sub-protocol.
const (
	URBHeaderSize      = 20
	SetupSize          = 8
	CmdSubmitBodySize  = 28
	CmdUnlinkBodySize  = 28
	RetSubmitBodySize  = 28
	RetUnlinkBodySize  = 28
)

// DeviceID is the fixed devid used in every outbound response:
// (busnum<<16)|devnum with busnum=1, devnum=2.
const DeviceID uint32 = (1 << 16) | 2

// URBHeader is the 20-byte header shared by every URB-phase frame:
// command:u32, seqnum:u32, devid:u32, direction:u32, ep:u32.
type URBHeader struct {
	Command   uint32
	SeqNum    uint32
	DevID     uint32
	Direction uint32
	EP        uint32
}

// EncodeURBHeader serializes h to buf. Returns bytes written, or 0 if
// buf is too small.
func EncodeURBHeader(h *URBHeader, buf []byte) int {
	if len(buf) < URBHeaderSize {
		return 0
	}
	binary.BigEndian.PutUint32(buf[0:4], h.Command)
	binary.BigEndian.PutUint32(buf[4:8], h.SeqNum)
	binary.BigEndian.PutUint32(buf[8:12], h.DevID)
	binary.BigEndian.PutUint32(buf[12:16], h.Direction)
	binary.BigEndian.PutUint32(buf[16:20], h.EP)
	return URBHeaderSize
}

// DecodeURBHeader parses a URB header from data into out.
func DecodeURBHeader(data []byte, out *URBHeader) error {
	if len(data) < URBHeaderSize {
		return &PacketTooShortError{N: len(data)}
	}
	out.Command = binary.BigEndian.Uint32(data[0:4])
	out.SeqNum = binary.BigEndian.Uint32(data[4:8])
	out.DevID = binary.BigEndian.Uint32(data[8:12])
	out.Direction = binary.BigEndian.Uint32(data[12:16])
	out.EP = binary.BigEndian.Uint32(data[16:20])
	return nil
}

// CmdSubmitBody is the 28-byte body of a CMD_SUBMIT frame.
type CmdSubmitBody struct {
	TransferFlags         uint32
	TransferBufferLength  int32
	StartFrame            int32
	NumberOfPackets       int32
	Interval              int32
	Setup                 [SetupSize]byte
}

// EncodeCmdSubmitBody serializes b to buf. Returns bytes written, or 0
// if buf is too small.
func EncodeCmdSubmitBody(b *CmdSubmitBody, buf []byte) int {
	if len(buf) < CmdSubmitBodySize {
		return 0
	}
	binary.BigEndian.PutUint32(buf[0:4], b.TransferFlags)
	binary.BigEndian.PutUint32(buf[4:8], uint32(b.TransferBufferLength))
	binary.BigEndian.PutUint32(buf[8:12], uint32(b.StartFrame))
	binary.BigEndian.PutUint32(buf[12:16], uint32(b.NumberOfPackets))
	binary.BigEndian.PutUint32(buf[16:20], uint32(b.Interval))
	copy(buf[20:28], b.Setup[:])
	return CmdSubmitBodySize
}

// DecodeCmdSubmitBody parses a CMD_SUBMIT body from data into out.
func DecodeCmdSubmitBody(data []byte, out *CmdSubmitBody) error {
	if len(data) < CmdSubmitBodySize {
		return &PacketTooShortError{N: len(data)}
	}
	out.TransferFlags = binary.BigEndian.Uint32(data[0:4])
	out.TransferBufferLength = int32(binary.BigEndian.Uint32(data[4:8]))
	out.StartFrame = int32(binary.BigEndian.Uint32(data[8:12]))
	out.NumberOfPackets = int32(binary.BigEndian.Uint32(data[12:16]))
	out.Interval = int32(binary.BigEndian.Uint32(data[16:20]))
	copy(out.Setup[:], data[20:28])
	return nil
}

// HasSetup reports whether the setup field is non-zero (4
// SUBMIT OUT handling step 2).
func (b *CmdSubmitBody) HasSetup() bool {
	return b.Setup != [SetupSize]byte{}
}

// CmdUnlinkBody is the 28-byte body of a CMD_UNLINK frame: a 4-byte
// seqnum plus 24 bytes of padding kept for wire-layout uniformity
// with the other URB bodies.
type CmdUnlinkBody struct {
	SeqNum uint32
}

// EncodeCmdUnlinkBody serializes b to buf. Returns bytes written, or 0
// if buf is too small.
func EncodeCmdUnlinkBody(b *CmdUnlinkBody, buf []byte) int {
	if len(buf) < CmdUnlinkBodySize {
		return 0
	}
	binary.BigEndian.PutUint32(buf[0:4], b.SeqNum)
	for i := 4; i < CmdUnlinkBodySize; i++ {
		buf[i] = 0
	}
	return CmdUnlinkBodySize
}

// DecodeCmdUnlinkBody parses a CMD_UNLINK body from data into out.
func DecodeCmdUnlinkBody(data []byte, out *CmdUnlinkBody) error {
	if len(data) < CmdUnlinkBodySize {
		return &PacketTooShortError{N: len(data)}
	}
	out.SeqNum = binary.BigEndian.Uint32(data[0:4])
	return nil
}

// RetSubmitBody is the 28-byte body of a RET_SUBMIT reply: status,
// actual_length, start_frame, number_of_packets, error_count, plus 8
// bytes of padding.
type RetSubmitBody struct {
	Status          int32
	ActualLength    int32
	StartFrame      int32
	NumberOfPackets int32
	ErrorCount      int32
}

// EncodeRetSubmitBody serializes b to buf. Returns bytes written, or 0
// if buf is too small.
func EncodeRetSubmitBody(b *RetSubmitBody, buf []byte) int {
	if len(buf) < RetSubmitBodySize {
		return 0
	}
	binary.BigEndian.PutUint32(buf[0:4], uint32(b.Status))
	binary.BigEndian.PutUint32(buf[4:8], uint32(b.ActualLength))
	binary.BigEndian.PutUint32(buf[8:12], uint32(b.StartFrame))
	binary.BigEndian.PutUint32(buf[12:16], uint32(b.NumberOfPackets))
	binary.BigEndian.PutUint32(buf[16:20], uint32(b.ErrorCount))
	for i := 20; i < RetSubmitBodySize; i++ {
		buf[i] = 0
	}
	return RetSubmitBodySize
}

// DecodeRetSubmitBody parses a RET_SUBMIT body from data into out.
func DecodeRetSubmitBody(data []byte, out *RetSubmitBody) error {
	if len(data) < RetSubmitBodySize {
		return &PacketTooShortError{N: len(data)}
	}
	out.Status = int32(binary.BigEndian.Uint32(data[0:4]))
	out.ActualLength = int32(binary.BigEndian.Uint32(data[4:8]))
	out.StartFrame = int32(binary.BigEndian.Uint32(data[8:12]))
	out.NumberOfPackets = int32(binary.BigEndian.Uint32(data[12:16]))
	out.ErrorCount = int32(binary.BigEndian.Uint32(data[16:20]))
	return nil
}

// RetUnlinkBody is the 28-byte body of a RET_UNLINK reply: a 4-byte
// status plus 24 bytes of padding. Real implementations allocate 28
// bytes but populate only the first 4; this codec preserves that
// padded form for wire compatibility.
type RetUnlinkBody struct {
	Status uint32
}

// EncodeRetUnlinkBody serializes b to buf. Returns bytes written, or 0
// if buf is too small.
func EncodeRetUnlinkBody(b *RetUnlinkBody, buf []byte) int {
	if len(buf) < RetUnlinkBodySize {
		return 0
	}
	binary.BigEndian.PutUint32(buf[0:4], b.Status)
	for i := 4; i < RetUnlinkBodySize; i++ {
		buf[i] = 0
	}
	return RetUnlinkBodySize
}

// DecodeRetUnlinkBody parses a RET_UNLINK body from data into out.
func DecodeRetUnlinkBody(data []byte, out *RetUnlinkBody) error {
	if len(data) < RetUnlinkBodySize {
		return &PacketTooShortError{N: len(data)}
	}
	out.Status = binary.BigEndian.Uint32(data[0:4])
	return nil
}
