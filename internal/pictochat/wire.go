package pictochat

import (
	"encoding/binary"
	"fmt"
	"net"
)

// PictoChat carries MAC addresses with each byte pair swapped
// (a1 a0 a3 a2 a5 a4). An inherited oddity of the protocol; both
// directions are the same transform.

// SwapMAC converts between wire order and canonical order.
func SwapMAC(mac net.HardwareAddr) net.HardwareAddr {
	if len(mac) != 6 {
		return append(net.HardwareAddr(nil), mac...)
	}
	return net.HardwareAddr{mac[1], mac[0], mac[3], mac[2], mac[5], mac[4]}
}

// Console-ident packet types observed on the air. The full four-stage
// handshake is only partially reverse-engineered; these decoders are
// experimental and the host tolerates frames it cannot place.
const (
	TypeIdentRequest = 0x01
	TypeIdentReply   = 0x02
	TypeRosterUpdate = 0x04
	TypeMessage      = 0x05
)

// PayloadIdent is the observed payload discriminator for console
// identity blocks. The receive path does not check it: ident blocks are
// decoded from type-1 and type-2 frames, and type-5 frames are handled
// as chat messages.
const PayloadIdent = 0x05

// TransferHeader prefixes every PictoChat datagram.
type TransferHeader struct {
	Type   uint8
	Member uint8
	Length uint16
}

const transferHeaderLen = 4

// DecodeTransferHeader reads the datagram prefix.
func DecodeTransferHeader(b []byte) (TransferHeader, []byte, error) {
	if len(b) < transferHeaderLen {
		return TransferHeader{}, nil, fmt.Errorf("pictochat: short transfer header (%d bytes)", len(b))
	}
	h := TransferHeader{
		Type:   b[0],
		Member: b[1],
		Length: binary.LittleEndian.Uint16(b[2:4]),
	}
	rest := b[transferHeaderLen:]
	if int(h.Length) > len(rest) {
		return TransferHeader{}, nil, fmt.Errorf("pictochat: transfer length %d exceeds datagram", h.Length)
	}
	return h, rest[:h.Length], nil
}

// Encode appends the header and body to dst.
func (h TransferHeader) Encode(dst, body []byte) []byte {
	dst = append(dst, h.Type, h.Member)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(body)))
	return append(dst, body...)
}

// ConsoleIdent is the identity block a console sends while joining a
// room: its MAC (pairwise swapped on the wire) and its UTF-16LE name.
type ConsoleIdent struct {
	MAC  net.HardwareAddr
	Name string
}

// DecodeConsoleIdent parses an ident body. The name field is fixed at 10
// UTF-16 code units, NUL padded.
func DecodeConsoleIdent(b []byte) (ConsoleIdent, error) {
	const nameUnits = 10
	if len(b) < 6+nameUnits*2 {
		return ConsoleIdent{}, fmt.Errorf("pictochat: short ident block (%d bytes)", len(b))
	}
	id := ConsoleIdent{MAC: SwapMAC(net.HardwareAddr(b[0:6]))}
	runes := make([]rune, 0, nameUnits)
	for i := 0; i < nameUnits; i++ {
		u := binary.LittleEndian.Uint16(b[6+2*i : 8+2*i])
		if u == 0 {
			break
		}
		runes = append(runes, rune(u))
	}
	id.Name = string(runes)
	return id, nil
}

// Encode appends the wire form of the ident block to dst.
func (id ConsoleIdent) Encode(dst []byte) []byte {
	const nameUnits = 10
	dst = append(dst, SwapMAC(id.MAC)...)
	units := 0
	for _, r := range id.Name {
		if units == nameUnits {
			break
		}
		dst = binary.LittleEndian.AppendUint16(dst, uint16(r))
		units++
	}
	for ; units < nameUnits; units++ {
		dst = binary.LittleEndian.AppendUint16(dst, 0)
	}
	return dst
}
