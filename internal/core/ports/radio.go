package ports

import (
	"context"
	"net"
	"time"
)

// PhyRate selects the 802.11b rate and preamble for one transmission.
// The DS protocol only ever uses 1 and 2 Mb/s.
type PhyRate int

const (
	Rate1MbpsLong PhyRate = iota
	Rate2MbpsLong
	Rate2MbpsShort
)

// FilterBank names a hardware RX filter slot.
type FilterBank int

const (
	FilterBSSID FilterBank = iota
	FilterReceiverAddress
)

// TxErrorBehaviour tells the radio what to do when a transmission fails.
type TxErrorBehaviour int

const (
	// TxDrop gives up immediately.
	TxDrop TxErrorBehaviour = iota
	// TxRetry retries up to MaxRetries times before reporting failure.
	TxRetry
)

// TxParams carries the per-MPDU transmit parameters defined by the radio
// driver contract.
type TxParams struct {
	Rate           PhyRate
	WaitForAck     bool
	DurationUS     uint16
	ErrorBehaviour TxErrorBehaviour
	MaxRetries     int
	OverrideSeq    bool
	SeqNum         uint16
}

// RxBuffer is one received MPDU borrowed from the radio. MPDU includes the
// trailing FCS. The buffer is only valid until the next receive on the
// same channel; copy out anything kept longer.
type RxBuffer struct {
	MPDU []byte
	At   time.Time
}

// Radio is the PHY driver consumed by the MAC runner. Implementations live
// in internal/adapters/radio.
type Radio interface {
	SetAndLockChannel(ch uint8) error
	SetFilter(bank FilterBank, addr net.HardwareAddr, mask net.HardwareAddr) error
	SetFilterEnabled(bank FilterBank, on bool) error
	Transmit(ctx context.Context, mpdu []byte, params TxParams) error
	Receive() <-chan RxBuffer
	Close() error
}
