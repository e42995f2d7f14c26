package roster

import (
	"bytes"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/mjwells2002/foa-dswifi/internal/core/domain"
)

// ErrFull is returned when all 15 AIDs are taken. The protocol has no way
// to park a 16th station, so callers treat this as fatal for the session.
var ErrFull = errors.New("roster: no free association ID")

// Roster is the fixed-capacity client table. Slot i holds the client with
// AID i+1. All access goes through the mutex; the MAC runner may hold it
// across a radio transmit because nothing else contends during a round.
type Roster struct {
	mu      sync.Mutex
	clients [domain.MaxClients]*domain.Client
	allMask domain.ClientMask
}

func New() *Roster {
	return &Roster{}
}

// NextFreeAID returns the lowest unused AID.
func (r *Roster) NextFreeAID() (domain.AID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.clients {
		if r.clients[i] == nil {
			return domain.AID(i + 1), nil
		}
	}
	return 0, ErrFull
}

// Has reports whether a station with this MAC is present in any state.
func (r *Roster) Has(mac net.HardwareAddr) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(mac) != nil
}

// Get returns a copy of the entry for mac.
func (r *Roster) Get(mac net.HardwareAddr) (domain.Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.findLocked(mac); c != nil {
		return *c, true
	}
	return domain.Client{}, false
}

// Add inserts a client at the slot its AID owns. A Connected client
// contributes its bit to the active mask immediately.
func (r *Roster) Add(c domain.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cc := c
	cc.MAC = append(net.HardwareAddr(nil), c.MAC...)
	r.clients[c.AID-1] = &cc
	if cc.State == domain.StateConnected {
		r.allMask.Add(c.AID.MaskBit())
	}
}

// UpdateState moves a client to a new state and stamps LastHeard. The
// active mask tracks the Connected set.
func (r *Roster) UpdateState(mac net.HardwareAddr, state domain.ClientState, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.findLocked(mac)
	if c == nil {
		return false
	}
	c.State = state
	c.LastHeard = now
	if state == domain.StateConnected {
		r.allMask.Add(c.AID.MaskBit())
	} else {
		r.allMask.Subtract(c.AID.MaskBit())
	}
	return true
}

// Touch refreshes LastHeard for the client holding aid.
func (r *Roster) Touch(aid domain.AID, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !aid.Valid() {
		return
	}
	if c := r.clients[aid-1]; c != nil {
		c.LastHeard = now
	}
}

// TouchMAC refreshes LastHeard for the client with this MAC and returns
// its AID.
func (r *Roster) TouchMAC(mac net.HardwareAddr, now time.Time) (domain.AID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.findLocked(mac)
	if c == nil {
		return 0, false
	}
	c.LastHeard = now
	return c.AID, true
}

// Remove clears the slot and mask bit for aid.
func (r *Roster) Remove(aid domain.AID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !aid.Valid() {
		return
	}
	r.clients[aid-1] = nil
	r.allMask.Subtract(aid.MaskBit())
}

// AllClientsMask snapshots the Connected-station bitmap.
func (r *Roster) AllClientsMask() domain.ClientMask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allMask
}

// NumClients counts Connected stations.
func (r *Roster) NumClients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allMask.NumClients()
}

// Expired returns copies of every client whose LastHeard age exceeds ttl.
func (r *Roster) Expired(now time.Time, ttl time.Duration) []domain.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	var gone []domain.Client
	for _, c := range r.clients {
		if c != nil && now.Sub(c.LastHeard) > ttl {
			gone = append(gone, *c)
		}
	}
	return gone
}

// Snapshot returns copies of all entries, for the monitor surface.
func (r *Roster) Snapshot() []domain.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.Client
	for _, c := range r.clients {
		if c != nil {
			all = append(all, *c)
		}
	}
	return all
}

func (r *Roster) findLocked(mac net.HardwareAddr) *domain.Client {
	for _, c := range r.clients {
		if c != nil && bytes.Equal(c.MAC, mac) {
			return c
		}
	}
	return nil
}
