package frame

import (
	"encoding/binary"
	"fmt"
	"log"
	"net"

	"github.com/mjwells2002/foa-dswifi/internal/core/domain"
)

// Host->client flag bits. Everything except HasFooter passes through from
// the application untouched.
const (
	HostFlagHasFooter = 1 << 3
)

// Client->host flag bits.
const (
	ClientFlagHasFooter     = 1 << 3
	ClientFlagLengthIsBytes = 1 << 5
)

// HostToClientFrame is the payload of a polled data frame. The footer flag
// is set automatically whenever a footer is attached.
type HostToClientFrame struct {
	USPerClientReply uint16
	ClientTargetMask domain.ClientMask
	Flags            uint8
	Payload          []byte
	Footer           *HostToClientFooter
}

// HostToClientFooter trails the payload when present.
type HostToClientFooter struct {
	DataSeq          uint16
	ClientTargetMask domain.ClientMask
}

// Encode appends the wire form to dst. The payload length byte counts
// 16-bit units.
func (f *HostToClientFrame) Encode(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, f.USPerClientReply)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(f.ClientTargetMask))
	dst = append(dst, byte(len(f.Payload)/2))
	flags := f.Flags
	if f.Footer != nil {
		flags |= HostFlagHasFooter
	}
	dst = append(dst, flags)
	dst = append(dst, f.Payload...)
	if f.Footer != nil {
		dst = binary.LittleEndian.AppendUint16(dst, f.Footer.DataSeq)
		dst = binary.LittleEndian.AppendUint16(dst, uint16(f.Footer.ClientTargetMask))
	}
	return dst
}

// DecodeHostToClient parses a host->client frame body.
func DecodeHostToClient(b []byte) (HostToClientFrame, error) {
	if len(b) < 6 {
		return HostToClientFrame{}, fmt.Errorf("host frame: short body (%d bytes)", len(b))
	}
	var f HostToClientFrame
	f.USPerClientReply = binary.LittleEndian.Uint16(b[0:2])
	f.ClientTargetMask = domain.ClientMask(binary.LittleEndian.Uint16(b[2:4]))
	payloadLen := int(b[4]) * 2
	f.Flags = b[5]
	offset := 6
	if offset+payloadLen > len(b) {
		return HostToClientFrame{}, fmt.Errorf("host frame: payload length %d exceeds body", payloadLen)
	}
	if payloadLen > 0 {
		f.Payload = append([]byte(nil), b[offset:offset+payloadLen]...)
	}
	offset += payloadLen
	if f.Flags&HostFlagHasFooter != 0 {
		if offset+4 > len(b) {
			return HostToClientFrame{}, fmt.Errorf("host frame: truncated footer")
		}
		f.Footer = &HostToClientFooter{
			DataSeq:          binary.LittleEndian.Uint16(b[offset : offset+2]),
			ClientTargetMask: domain.ClientMask(binary.LittleEndian.Uint16(b[offset+2 : offset+4])),
		}
	}
	// The footer flag is reflected in Flags either way; clear it so
	// encode(decode(x)) restores it from Footer alone.
	f.Flags &^= HostFlagHasFooter
	return f, nil
}

// ClientToHostFrame is the payload of a station's Data+CF-Ack reply.
type ClientToHostFrame struct {
	Flags       uint8
	Payload     [domain.MaxPayload]byte
	PayloadSize uint16
	FooterSeq   uint16
	HasFooter   bool
}

// DecodeClientToHost parses a client->host body. Payload length is in
// halfwords unless the LENGTH_IS_BYTES flag says otherwise; anything past
// the 300-byte buffer is dropped, logged, and treated as empty.
func DecodeClientToHost(b []byte) (ClientToHostFrame, error) {
	if len(b) < 2 {
		return ClientToHostFrame{}, fmt.Errorf("client frame: short body (%d bytes)", len(b))
	}
	var f ClientToHostFrame
	size := uint16(b[0])
	f.Flags = b[1]
	if f.Flags&ClientFlagLengthIsBytes == 0 {
		size *= 2
	}
	offset := 2
	if int(size) > domain.MaxPayload {
		log.Printf("Warning: ignoring client payload of %d bytes, max is %d", size, domain.MaxPayload)
		size = 0
	}
	if int(size) > len(b)-offset {
		return ClientToHostFrame{}, fmt.Errorf("client frame: payload length %d exceeds body", size)
	}
	if size > 0 {
		copy(f.Payload[:size], b[offset:offset+int(size)])
	}
	f.PayloadSize = size
	offset += int(size)
	if f.Flags&ClientFlagHasFooter != 0 {
		if offset+2 > len(b) {
			return ClientToHostFrame{}, fmt.Errorf("client frame: truncated footer")
		}
		f.FooterSeq = binary.LittleEndian.Uint16(b[offset : offset+2])
		f.HasFooter = true
	}
	return f, nil
}

// Encode appends the wire form of a client->host frame to dst. Used by
// the simulator and tests to synthesize station replies.
func (f *ClientToHostFrame) Encode(dst []byte) []byte {
	flags := f.Flags
	if f.HasFooter {
		flags |= ClientFlagHasFooter
	}
	if flags&ClientFlagLengthIsBytes != 0 {
		dst = append(dst, byte(f.PayloadSize))
	} else {
		dst = append(dst, byte(f.PayloadSize/2))
	}
	dst = append(dst, flags)
	dst = append(dst, f.Payload[:f.PayloadSize]...)
	if f.HasFooter {
		dst = binary.LittleEndian.AppendUint16(dst, f.FooterSeq)
	}
	return dst
}

// BuildPollFrame assembles the full Data+CF-Poll MPDU: from-DS, the DS
// poll destination, host MAC as both transmitter and BSSID.
func BuildPollFrame(hostMAC net.HardwareAddr, seq uint16, duration uint16, body *HostToClientFrame) []byte {
	buf := make([]byte, HeaderLen, HeaderLen+8+len(body.Payload)+4)
	header(buf, TypeData, SubtypeDataCFPoll, FlagFromDS, duration, PollDestination, hostMAC, hostMAC, seq)
	return body.Encode(buf)
}

// BuildAckFrame assembles the host's link-layer CF-Ack reply: a
// Data+CF-Ack frame with the fixed 4-byte idle body.
func BuildAckFrame(hostMAC net.HardwareAddr, seq uint16, duration uint16) []byte {
	buf := make([]byte, HeaderLen, HeaderLen+4)
	header(buf, TypeData, SubtypeDataCFAck, FlagFromDS, duration, AckDestination, hostMAC, hostMAC, seq)
	return append(buf, 0x82, 0x00, 0x00, 0x00)
}
