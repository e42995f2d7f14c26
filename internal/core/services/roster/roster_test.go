package roster

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mjwells2002/foa-dswifi/internal/core/domain"
)

func mac(i int) net.HardwareAddr {
	return net.HardwareAddr{0xAA, 0xAA, 0xAA, 0x00, 0x00, byte(i)}
}

func TestNextFreeAIDIsLowest(t *testing.T) {
	r := New()
	aid, err := r.NextFreeAID()
	require.NoError(t, err)
	assert.Equal(t, domain.AID(1), aid)

	r.Add(domain.Client{MAC: mac(1), AID: 1, State: domain.StateConnected})
	r.Add(domain.Client{MAC: mac(3), AID: 3, State: domain.StateConnected})

	aid, err = r.NextFreeAID()
	require.NoError(t, err)
	assert.Equal(t, domain.AID(2), aid)
}

func TestFullRoster(t *testing.T) {
	r := New()
	for i := 1; i <= domain.MaxClients; i++ {
		r.Add(domain.Client{MAC: mac(i), AID: domain.AID(i), State: domain.StateAssociating})
	}
	_, err := r.NextFreeAID()
	assert.ErrorIs(t, err, ErrFull)

	// Freeing any slot makes its AID available again.
	r.Remove(7)
	aid, err := r.NextFreeAID()
	require.NoError(t, err)
	assert.Equal(t, domain.AID(7), aid)
}

func TestMaskTracksConnectedOnly(t *testing.T) {
	r := New()
	r.Add(domain.Client{MAC: mac(1), AID: 1, State: domain.StateAssociating})
	assert.Equal(t, domain.ClientMask(0), r.AllClientsMask())

	r.UpdateState(mac(1), domain.StateConnected, time.Now())
	assert.Equal(t, domain.ClientMask(0b10), r.AllClientsMask())
	assert.Equal(t, 1, r.NumClients())

	r.Remove(1)
	assert.Equal(t, domain.ClientMask(0), r.AllClientsMask())
}

func TestAIDStability(t *testing.T) {
	r := New()
	r.Add(domain.Client{MAC: mac(1), AID: 1, State: domain.StateAssociating})
	r.UpdateState(mac(1), domain.StateConnected, time.Now())

	c, ok := r.Get(mac(1))
	require.True(t, ok)
	assert.Equal(t, domain.AID(1), c.AID)
}

func TestExpired(t *testing.T) {
	r := New()
	base := time.Now()
	r.Add(domain.Client{MAC: mac(1), AID: 1, State: domain.StateConnected, LastHeard: base})
	r.Add(domain.Client{MAC: mac(2), AID: 2, State: domain.StateConnected, LastHeard: base.Add(1200 * time.Millisecond)})

	gone := r.Expired(base.Add(1500*time.Millisecond), time.Second)
	require.Len(t, gone, 1)
	assert.Equal(t, mac(1), gone[0].MAC)
}

func TestTouchKeepsClientAlive(t *testing.T) {
	r := New()
	base := time.Now()
	r.Add(domain.Client{MAC: mac(1), AID: 1, State: domain.StateConnected, LastHeard: base})
	r.Touch(1, base.Add(1400*time.Millisecond))

	gone := r.Expired(base.Add(1500*time.Millisecond), time.Second)
	assert.Empty(t, gone)
}

// TestMaskConsistency drives the roster with random operation sequences
// and checks that the mask bits and slot states never disagree: bit i is
// set exactly when slot i-1 holds a Connected client.
func TestMaskConsistency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := New()
		present := map[int]bool{}

		ops := rapid.IntRange(1, 60).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			switch rapid.IntRange(0, 2).Draw(t, fmt.Sprintf("op%d", i)) {
			case 0: // add
				aid, err := r.NextFreeAID()
				if err != nil {
					continue
				}
				state := domain.StateAssociating
				if rapid.Bool().Draw(t, fmt.Sprintf("conn%d", i)) {
					state = domain.StateConnected
				}
				r.Add(domain.Client{MAC: mac(int(aid)), AID: aid, State: state})
				present[int(aid)] = true
			case 1: // connect
				aid := rapid.IntRange(1, domain.MaxClients).Draw(t, fmt.Sprintf("up%d", i))
				if present[aid] {
					r.UpdateState(mac(aid), domain.StateConnected, time.Now())
				}
			case 2: // remove
				aid := rapid.IntRange(1, domain.MaxClients).Draw(t, fmt.Sprintf("rm%d", i))
				r.Remove(domain.AID(aid))
				delete(present, aid)
			}
		}

		maskBits := r.AllClientsMask()
		connected := map[int]bool{}
		for _, c := range r.Snapshot() {
			if c.State == domain.StateConnected {
				connected[int(c.AID)] = true
			}
		}
		for aid := 1; aid <= domain.MaxClients; aid++ {
			bitSet := maskBits.Contains(domain.AID(aid).MaskBit())
			if bitSet != connected[aid] {
				t.Fatalf("mask bit %d = %v but connected = %v", aid, bitSet, connected[aid])
			}
		}
		if maskBits&1 != 0 {
			t.Fatalf("reserved bit 0 set")
		}
	})
}
