package radio

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjwells2002/foa-dswifi/internal/core/ports"
)

func TestSimRecordsTransmissions(t *testing.T) {
	s := NewSim()
	mpdu := []byte{0x28, 0x02, 0x00, 0x00}
	require.NoError(t, s.Transmit(context.Background(), mpdu, ports.TxParams{DurationUS: 200}))

	tx := s.Transmissions()
	require.Len(t, tx, 1)
	assert.Equal(t, mpdu, tx[0].MPDU)
	assert.Equal(t, uint16(200), tx[0].Params.DurationUS)

	// Records are copies; mutating the original must not reach them.
	mpdu[0] = 0xFF
	assert.Equal(t, byte(0x28), s.Transmissions()[0].MPDU[0])
}

func TestSimInjectDelivers(t *testing.T) {
	s := NewSim()
	s.Inject([]byte{0x80, 0x00})
	buf := <-s.Receive()
	assert.Equal(t, []byte{0x80, 0x00}, buf.MPDU)
}

func TestSimScriptedFailure(t *testing.T) {
	s := NewSim()
	boom := errors.New("radio busy")
	s.FailTransmits(func([]byte, ports.TxParams) error { return boom })
	err := s.Transmit(context.Background(), []byte{0x28}, ports.TxParams{})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Transmissions())
}

func TestStripRadiotap(t *testing.T) {
	rt := []byte{0x00, 0x00, 0x0A, 0x00, 0, 0, 0, 0, 0, 0}
	mpdu := []byte{0x80, 0x00, 0x00, 0x00}
	got, ok := stripRadiotap(append(rt, mpdu...))
	require.True(t, ok)
	assert.Equal(t, mpdu, got)

	_, ok = stripRadiotap([]byte{0x00, 0x00})
	assert.False(t, ok)

	// Claimed length past the packet.
	_, ok = stripRadiotap([]byte{0x00, 0x00, 0xFF, 0x00, 0x01})
	assert.False(t, ok)
}

func TestPcapSoftwareFilters(t *testing.T) {
	host := net.HardwareAddr{0x00, 0x09, 0xBF, 0x11, 0x22, 0x33}
	other := net.HardwareAddr{0x66, 0x55, 0x44, 0x33, 0x22, 0x11}

	p := &Pcap{
		filters: map[ports.FilterBank]net.HardwareAddr{
			ports.FilterReceiverAddress: host,
			ports.FilterBSSID:           host,
		},
		enabled: map[ports.FilterBank]bool{
			ports.FilterReceiverAddress: true,
			ports.FilterBSSID:           true,
		},
	}

	build := func(a1, a3 net.HardwareAddr) []byte {
		mpdu := make([]byte, 24)
		copy(mpdu[4:10], a1)
		copy(mpdu[16:22], a3)
		return mpdu
	}

	assert.True(t, p.passesFilters(build(host, host)))
	assert.False(t, p.passesFilters(build(other, host)))
	assert.False(t, p.passesFilters(build(host, other)))

	// Group-addressed frames always pass.
	bcast := net.HardwareAddr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	assert.True(t, p.passesFilters(build(bcast, other)))
	dsPoll := net.HardwareAddr{0x03, 0x09, 0xBF, 0x00, 0x00, 0x00}
	assert.True(t, p.passesFilters(build(dsPoll, other)))
}
