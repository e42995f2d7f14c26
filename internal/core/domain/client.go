package domain

import (
	"net"
	"time"
)

// MaxClients is the hard protocol limit on simultaneous stations. The
// client mask is 16 bits with bit 0 reserved, so AIDs run 1..=15.
const MaxClients = 15

// MaxPayload is the largest datagram either side of the link may carry.
const MaxPayload = 300

// ClientState tracks where a station is in the join sequence.
type ClientState int

const (
	// StateAssociating means we answered the station's Authentication
	// frame and are waiting for its Association Request.
	StateAssociating ClientState = iota
	// StateConnected means the Association Response went out and the
	// station participates in poll rounds.
	StateConnected
)

func (s ClientState) String() string {
	switch s {
	case StateAssociating:
		return "associating"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Client is one station slot in the roster. The AID is assigned on the
// first valid Authentication frame and never changes for the lifetime of
// the entry.
type Client struct {
	MAC       net.HardwareAddr
	AID       AID
	State     ClientState
	LastHeard time.Time
}

// AID is an 802.11 association ID, 1..=MaxClients on this link.
type AID uint16

// MaskBit returns the client-mask bit for this AID. Note the shift is by
// the AID itself, not AID-1: AID 1 owns bit 1 and bit 0 stays clear.
func (a AID) MaskBit() ClientMask {
	return ClientMask(1) << a
}

// Valid reports whether the AID is inside the protocol range.
func (a AID) Valid() bool {
	return a >= 1 && a <= MaxClients
}
