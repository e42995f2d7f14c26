package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskAlgebra(t *testing.T) {
	var m ClientMask
	m.Add(AID(1).MaskBit())
	m.Add(AID(3).MaskBit())
	assert.Equal(t, ClientMask(0b1010), m)
	assert.Equal(t, 2, m.NumClients())

	m.Subtract(AID(1).MaskBit())
	assert.Equal(t, ClientMask(0b1000), m)
	assert.False(t, m.IsEmpty())

	m.Subtract(AID(3).MaskBit())
	assert.True(t, m.IsEmpty())
}

func TestMaskBitShiftsByAID(t *testing.T) {
	// AID 1 owns bit 1, not bit 0.
	assert.Equal(t, ClientMask(0b10), AID(1).MaskBit())
	assert.Equal(t, ClientMask(1<<15), AID(15).MaskBit())
}

func TestAIDValid(t *testing.T) {
	assert.False(t, AID(0).Valid())
	assert.True(t, AID(1).Valid())
	assert.True(t, AID(15).Valid())
	assert.False(t, AID(16).Valid())
}
