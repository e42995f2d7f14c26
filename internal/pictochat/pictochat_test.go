package pictochat

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mjwells2002/foa-dswifi/internal/core/domain"
)

func TestSwapMACIsPairwise(t *testing.T) {
	mac := net.HardwareAddr{0x00, 0x09, 0xBF, 0x11, 0x22, 0x33}
	swapped := SwapMAC(mac)
	assert.Equal(t, net.HardwareAddr{0x09, 0x00, 0x11, 0xBF, 0x33, 0x22}, swapped)
}

func TestSwapMACIsInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOfN(rapid.Byte(), 6, 6).Draw(t, "mac")
		mac := net.HardwareAddr(raw)
		if got := SwapMAC(SwapMAC(mac)); got.String() != mac.String() {
			t.Fatalf("double swap of %s gave %s", mac, got)
		}
	})
}

func TestBeaconPayloadCountsHost(t *testing.T) {
	p := BeaconPayload(RoomB, 3)
	assert.Equal(t, []byte{0x48, 0x23, 0x11, 0x0A, 0x01, 0x04, 0x04, 0x00}, p)
}

func TestBeaconTag(t *testing.T) {
	tag := BeaconTag(RoomA)(0)
	assert.Equal(t, uint16(7), tag.StreamCode)
	assert.Equal(t, uint16(0x00C0), tag.CmdDataSize)
	assert.Equal(t, uint16(0x00C0), tag.ReplyDataSize)
	// Empty room still advertises the host itself.
	assert.Equal(t, byte(1), tag.Payload[5])
}

func TestTransferHeaderRoundTrip(t *testing.T) {
	body := []byte{1, 2, 3, 4, 5}
	wire := TransferHeader{Type: TypeMessage, Member: 2}.Encode(nil, body)

	h, got, err := DecodeTransferHeader(wire)
	require.NoError(t, err)
	assert.Equal(t, uint8(TypeMessage), h.Type)
	assert.Equal(t, uint8(2), h.Member)
	assert.Equal(t, body, got)
}

func TestTransferHeaderRejectsBadLength(t *testing.T) {
	_, _, err := DecodeTransferHeader([]byte{0x05, 0x00, 0xFF, 0x00})
	assert.Error(t, err)
	_, _, err = DecodeTransferHeader([]byte{0x05})
	assert.Error(t, err)
}

func TestConsoleIdentRoundTrip(t *testing.T) {
	id := ConsoleIdent{
		MAC:  net.HardwareAddr{0xAA, 0xAA, 0xAA, 0x00, 0x00, 0x01},
		Name: "Meteos",
	}
	decoded, err := DecodeConsoleIdent(id.Encode(nil))
	require.NoError(t, err)
	assert.Equal(t, id.MAC, decoded.MAC)
	assert.Equal(t, id.Name, decoded.Name)
}

func TestUserManager(t *testing.T) {
	m := NewUserManager()
	mac1 := net.HardwareAddr{0xAA, 0xAA, 0xAA, 0x00, 0x00, 0x01}

	m.Join(User{MAC: mac1, AID: 1})
	assert.Equal(t, 1, m.Count())

	require.True(t, m.SetName(mac1, "Meteos"))
	users := m.Snapshot()
	require.Len(t, users, 1)
	assert.Equal(t, "Meteos", users[0].Name)

	m.Leave(mac1)
	assert.Equal(t, 0, m.Count())
}

func TestUserManagerCapsAtRosterSize(t *testing.T) {
	m := NewUserManager()
	for i := 0; i < domain.MaxClients+3; i++ {
		m.Join(User{MAC: net.HardwareAddr{0xAA, 0xAA, 0xAA, 0x00, 0x00, byte(i)}})
	}
	assert.Equal(t, domain.MaxClients, m.Count())
}
