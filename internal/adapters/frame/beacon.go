package frame

import (
	"encoding/binary"
	"fmt"
	"net"
)

// BeaconType is the DS vendor tag's network-kind discriminator.
type BeaconType uint8

const (
	BeaconMulticart BeaconType = 0x01
	BeaconEmpty     BeaconType = 0x09
	BeaconMultiboot BeaconType = 0x0B
)

// DSBeaconTag is the body of the Nintendo vendor-specific element, after
// the 00:09:BF OUI. All fields are little-endian. The stepping offset,
// LCD sync and fixed ID bytes are observed constants; their semantics are
// not documented.
type DSBeaconTag struct {
	OUIType        uint8
	SteppingOffset [2]byte
	LCDVideoSync   [2]byte
	FixedID        [4]byte
	GameID         [4]byte
	StreamCode     uint16
	BeaconType     BeaconType
	CmdDataSize    uint16
	ReplyDataSize  uint16
	Payload        []byte
}

// DefaultDSBeaconTag returns a tag with the constants every working
// capture carries.
func DefaultDSBeaconTag() DSBeaconTag {
	return DSBeaconTag{
		OUIType:        0,
		SteppingOffset: [2]byte{0x0A, 0x00},
		LCDVideoSync:   [2]byte{0x00, 0x00},
		FixedID:        [4]byte{0x00, 0x00, 0x00, 0x0A},
		BeaconType:     BeaconEmpty,
	}
}

// dsBeaconTagHeaderLen is the fixed part of the tag, before the payload.
const dsBeaconTagHeaderLen = 21

// Encode appends the serialized tag to dst. The payload size byte is
// always computed from the payload itself.
func (t *DSBeaconTag) Encode(dst []byte) []byte {
	dst = append(dst, t.OUIType)
	dst = append(dst, t.SteppingOffset[:]...)
	dst = append(dst, t.LCDVideoSync[:]...)
	dst = append(dst, t.FixedID[:]...)
	dst = append(dst, t.GameID[:]...)
	dst = binary.LittleEndian.AppendUint16(dst, t.StreamCode)
	dst = append(dst, byte(len(t.Payload)))
	dst = append(dst, byte(t.BeaconType))
	dst = binary.LittleEndian.AppendUint16(dst, t.CmdDataSize)
	dst = binary.LittleEndian.AppendUint16(dst, t.ReplyDataSize)
	return append(dst, t.Payload...)
}

// DecodeDSBeaconTag parses a vendor element body (OUI already stripped).
func DecodeDSBeaconTag(b []byte) (DSBeaconTag, error) {
	if len(b) < dsBeaconTagHeaderLen {
		return DSBeaconTag{}, fmt.Errorf("ds beacon tag: short body (%d bytes)", len(b))
	}
	var t DSBeaconTag
	t.OUIType = b[0]
	copy(t.SteppingOffset[:], b[1:3])
	copy(t.LCDVideoSync[:], b[3:5])
	copy(t.FixedID[:], b[5:9])
	copy(t.GameID[:], b[9:13])
	t.StreamCode = binary.LittleEndian.Uint16(b[13:15])
	payloadSize := int(b[15])
	t.BeaconType = BeaconType(b[16])
	t.CmdDataSize = binary.LittleEndian.Uint16(b[17:19])
	t.ReplyDataSize = binary.LittleEndian.Uint16(b[19:21])
	if dsBeaconTagHeaderLen+payloadSize > len(b) {
		return DSBeaconTag{}, fmt.Errorf("ds beacon tag: payload size %d exceeds body", payloadSize)
	}
	if payloadSize > 0 {
		t.Payload = append([]byte(nil), b[dsBeaconTagHeaderLen:dsBeaconTagHeaderLen+payloadSize]...)
	}
	return t, nil
}

// BeaconParams feeds BuildBeacon.
type BeaconParams struct {
	HostMAC     net.HardwareAddr
	TimestampUS uint64
	Seq         uint16
	Channel     uint8
	Tag         DSBeaconTag
}

// Capability bits used on this link.
const (
	capESS           = 0x0001
	capShortPreamble = 0x0020
)

// BuildBeacon assembles the full beacon MPDU (no FCS) with the element
// order the DS firmware expects: supported rates, DSSS parameter set, the
// raw type-5 element, then the vendor tag.
func BuildBeacon(p BeaconParams) []byte {
	buf := make([]byte, HeaderLen, 256)
	header(buf, TypeManagement, SubtypeBeacon, 0, 0, Broadcast, p.HostMAC, p.HostMAC, p.Seq)

	buf = binary.LittleEndian.AppendUint64(buf, p.TimestampUS)
	buf = binary.LittleEndian.AppendUint16(buf, 100) // beacon interval
	buf = binary.LittleEndian.AppendUint16(buf, capESS)

	buf = appendElement(buf, 1, []byte{0x82, 0x84}) // basic rates 1, 2 Mb/s
	buf = appendElement(buf, 3, []byte{p.Channel})
	buf = appendElement(buf, 5, []byte{0x00, 0x02, 0x00, 0x00})

	vendor := append([]byte{}, NintendoOUI[:]...)
	vendor = p.Tag.Encode(vendor)
	return appendElement(buf, 221, vendor)
}

// FindVendorTag walks a beacon body's elements and returns the DS vendor
// tag body if present. Element iteration follows the usual id/len walk
// with bounds checks.
func FindVendorTag(body []byte) ([]byte, bool) {
	// Skip the fixed beacon fields.
	const fixed = 12
	if len(body) < fixed {
		return nil, false
	}
	offset := fixed
	for offset+2 <= len(body) {
		id := body[offset]
		length := int(body[offset+1])
		offset += 2
		if offset+length > len(body) {
			break
		}
		val := body[offset : offset+length]
		if id == 221 && length >= 3 && val[0] == NintendoOUI[0] && val[1] == NintendoOUI[1] && val[2] == NintendoOUI[2] {
			return val[3:], true
		}
		offset += length
	}
	return nil, false
}
