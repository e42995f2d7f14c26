// Package radio provides the PHY adapters behind ports.Radio: a
// monitor-mode pcap driver for real interfaces and an in-memory
// simulator for tests and mock mode.
package radio

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/mjwells2002/foa-dswifi/internal/core/ports"
)

// TxRecord is one captured simulator transmission.
type TxRecord struct {
	MPDU   []byte
	Params ports.TxParams
	At     time.Time
}

// Sim is the loopback radio. Transmissions are recorded for inspection
// and received frames are injected by the test or the mock driver.
type Sim struct {
	mu       sync.Mutex
	tx       []TxRecord
	txErr    func(mpdu []byte, params ports.TxParams) error
	channel  uint8
	filters  map[ports.FilterBank]net.HardwareAddr
	enabled  map[ports.FilterBank]bool
	closed   bool
	rx       chan ports.RxBuffer
}

func NewSim() *Sim {
	return &Sim{
		rx:      make(chan ports.RxBuffer, 32),
		filters: make(map[ports.FilterBank]net.HardwareAddr),
		enabled: make(map[ports.FilterBank]bool),
	}
}

// FailTransmits scripts per-transmit errors; nil restores success.
func (s *Sim) FailTransmits(f func(mpdu []byte, params ports.TxParams) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txErr = f
}

func (s *Sim) SetAndLockChannel(ch uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = ch
	return nil
}

// Channel reports the locked channel.
func (s *Sim) Channel() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

func (s *Sim) SetFilter(bank ports.FilterBank, addr net.HardwareAddr, _ net.HardwareAddr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters[bank] = append(net.HardwareAddr(nil), addr...)
	return nil
}

func (s *Sim) SetFilterEnabled(bank ports.FilterBank, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled[bank] = on
	return nil
}

func (s *Sim) Transmit(_ context.Context, mpdu []byte, params ports.TxParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txErr != nil {
		if err := s.txErr(mpdu, params); err != nil {
			return err
		}
	}
	s.tx = append(s.tx, TxRecord{
		MPDU:   append([]byte(nil), mpdu...),
		Params: params,
		At:     time.Now(),
	})
	return nil
}

func (s *Sim) Receive() <-chan ports.RxBuffer {
	return s.rx
}

// Inject delivers one MPDU (with trailing FCS) to the receive path.
func (s *Sim) Inject(mpdu []byte) {
	s.rx <- ports.RxBuffer{MPDU: append([]byte(nil), mpdu...), At: time.Now()}
}

// Transmissions snapshots everything transmitted so far.
func (s *Sim) Transmissions() []TxRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TxRecord, len(s.tx))
	copy(out, s.tx)
	return out
}

// ClearTransmissions resets the capture.
func (s *Sim) ClearTransmissions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tx = nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.rx)
	}
	return nil
}
