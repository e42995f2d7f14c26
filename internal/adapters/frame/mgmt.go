package frame

import (
	"encoding/binary"
	"net"

	"github.com/mjwells2002/foa-dswifi/internal/core/domain"
)

// Open-system authentication constants.
const (
	AuthAlgorithmOpen = 0
	StatusSuccess     = 0
)

// aidFieldBits are the two most significant bits of the association ID
// field, always set on the wire.
const aidFieldBits = 0xC000

// BuildAuthResponse assembles the open-system Authentication reply
// (sequence 2, status success).
func BuildAuthResponse(hostMAC, clientMAC net.HardwareAddr, seq uint16, duration uint16) []byte {
	buf := make([]byte, HeaderLen, HeaderLen+6)
	header(buf, TypeManagement, SubtypeAuth, 0, duration, clientMAC, hostMAC, hostMAC, seq)
	buf = binary.LittleEndian.AppendUint16(buf, AuthAlgorithmOpen)
	buf = binary.LittleEndian.AppendUint16(buf, 2) // transaction sequence
	return binary.LittleEndian.AppendUint16(buf, StatusSuccess)
}

// BuildAssocResponse assembles the Association Response carrying the
// assigned AID, ESS+ShortPreamble capabilities and the 1/2 Mb/s basic
// rate set.
func BuildAssocResponse(hostMAC, clientMAC net.HardwareAddr, aid domain.AID, seq uint16, duration uint16) []byte {
	buf := make([]byte, HeaderLen, HeaderLen+10)
	header(buf, TypeManagement, SubtypeAssocResp, 0, duration, clientMAC, hostMAC, hostMAC, seq)
	buf = binary.LittleEndian.AppendUint16(buf, capESS|capShortPreamble)
	buf = binary.LittleEndian.AppendUint16(buf, StatusSuccess)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(aid)|aidFieldBits)
	return appendElement(buf, 1, []byte{0x82, 0x84})
}

// BuildDeauth assembles a Deauthentication frame for the timeout sweep.
func BuildDeauth(hostMAC, clientMAC net.HardwareAddr, reason uint16, seq uint16, duration uint16) []byte {
	buf := make([]byte, HeaderLen, HeaderLen+2)
	header(buf, TypeManagement, SubtypeDeauth, 0, duration, clientMAC, hostMAC, hostMAC, seq)
	return binary.LittleEndian.AppendUint16(buf, reason)
}

// ParseAID recovers the association ID from a wire AID field.
func ParseAID(field uint16) domain.AID {
	return domain.AID(field &^ aidFieldBits)
}
