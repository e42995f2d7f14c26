package frame

import (
	"encoding/binary"
	"net"
)

// 802.11 frame-control type values.
const (
	TypeManagement = 0
	TypeControl    = 1
	TypeData       = 2
)

// Management subtypes used on this link.
const (
	SubtypeAssocReq  = 0
	SubtypeAssocResp = 1
	SubtypeBeacon    = 8
	SubtypeAuth      = 11
	SubtypeDeauth    = 12
)

// Data subtypes used by the DS polling exchange.
const (
	SubtypeData       = 0
	SubtypeDataCFAck  = 1 // Data+CF-Ack: client reply carrying a payload
	SubtypeDataCFPoll = 2 // Data+CF-Poll: host poll frame
	SubtypeCFAck      = 5 // CF-Ack with no data: bare client reply
)

// Frame-control flag bits (second FC byte).
const (
	FlagToDS   = 0x01
	FlagFromDS = 0x02
	FlagRetry  = 0x08
)

// HeaderLen is the classic 3-address 802.11 MAC header length.
const HeaderLen = 24

// FCSLen is the length of the trailing frame check sequence on received
// MPDUs.
const FCSLen = 4

// Special destinations defined by the DS protocol.
var (
	// PollDestination marks host->client polled data frames.
	PollDestination = net.HardwareAddr{0x03, 0x09, 0xBF, 0x00, 0x00, 0x00}
	// AckDestination marks host link-layer CF-Ack replies.
	AckDestination = net.HardwareAddr{0x03, 0x09, 0xBF, 0x00, 0x00, 0x03}
	// Broadcast is the all-stations address.
	Broadcast = net.HardwareAddr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
)

// NintendoOUI identifies the vendor-specific beacon element.
var NintendoOUI = [3]byte{0x00, 0x09, 0xBF}

// FrameControl is the decoded first two bytes of an MPDU.
type FrameControl struct {
	Type    int
	Subtype int
	ToDS    bool
	FromDS  bool
	Retry   bool
}

// ParseFrameControl decodes the frame-control field. The RX classifier
// runs it on every received MPDU, so it must stay allocation free.
func ParseFrameControl(mpdu []byte) (FrameControl, bool) {
	if len(mpdu) < 2 {
		return FrameControl{}, false
	}
	b0, b1 := mpdu[0], mpdu[1]
	return FrameControl{
		Type:    int(b0 >> 2 & 0x03),
		Subtype: int(b0 >> 4 & 0x0F),
		ToDS:    b1&FlagToDS != 0,
		FromDS:  b1&FlagFromDS != 0,
		Retry:   b1&FlagRetry != 0,
	}, true
}

// Transmitter returns address 2 of the MPDU without allocating.
func Transmitter(mpdu []byte) (net.HardwareAddr, bool) {
	if len(mpdu) < 16 {
		return nil, false
	}
	return net.HardwareAddr(mpdu[10:16]), true
}

// Body returns the frame body between the MAC header and the FCS.
func Body(mpdu []byte) ([]byte, bool) {
	if len(mpdu) < HeaderLen+FCSLen {
		return nil, false
	}
	return mpdu[HeaderLen : len(mpdu)-FCSLen], true
}

// header writes a 24-byte 3-address MAC header.
func header(buf []byte, ftype, subtype int, flags byte, duration uint16, a1, a2, a3 net.HardwareAddr, seq uint16) {
	buf[0] = byte(subtype<<4 | ftype<<2)
	buf[1] = flags
	binary.LittleEndian.PutUint16(buf[2:4], duration)
	copy(buf[4:10], a1)
	copy(buf[10:16], a2)
	copy(buf[16:22], a3)
	binary.LittleEndian.PutUint16(buf[22:24], seq<<4)
}

// appendElement appends one information element (id, length, value).
func appendElement(buf []byte, id byte, val []byte) []byte {
	buf = append(buf, id, byte(len(val)))
	return append(buf, val...)
}
