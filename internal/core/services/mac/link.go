// Package mac implements the host side of the DS local-multiplayer link:
// the vendor beacon, the open-system join state machine, and the
// host-polled data round.
package mac

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/mjwells2002/foa-dswifi/internal/core/domain"
	"github.com/mjwells2002/foa-dswifi/internal/telemetry"
)

const (
	mgmtQueueDepth     = 4
	ackQueueDepth      = 4
	datagramQueueDepth = 4
	eventQueueDepth    = 4
)

// OutboundSlot is the single pending host->client datagram. The
// application fills it between FrameRequired and FrameGenerated; the
// runner serializes it into the next poll frame.
type OutboundSlot struct {
	mu    sync.Mutex
	Data  [domain.MaxPayload]byte
	Size  uint16
	Flags uint8
}

func (s *OutboundSlot) Lock()   { s.mu.Lock() }
func (s *OutboundSlot) Unlock() { s.mu.Unlock() }

// ackRecord is one CF-Ack observation from the classifier.
type ackRecord struct {
	mac net.HardwareAddr
	at  time.Time
}

// resources is the shared store between the classifier, the runner and
// the application-facing control handle. It is built first and owns every
// queue and slot; runner and control hold non-owning references
// (breaking the runner/control cycle at the construction site).
type resources struct {
	mgmtQ  chan rxFrame
	ackQ   chan ackRecord
	rxQ    chan domain.Datagram
	eventQ chan domain.ClientEvent

	ctrlReq  chan domain.ControlRequest
	ctrlResp chan domain.ControlResponse

	frameRequired  chan struct{}
	frameGenerated chan struct{}

	outbound OutboundSlot
}

// rxFrame is a management MPDU copied out of the radio's borrowed buffer.
type rxFrame struct {
	mpdu []byte
	at   time.Time
}

func newResources() *resources {
	return &resources{
		mgmtQ:          make(chan rxFrame, mgmtQueueDepth),
		ackQ:           make(chan ackRecord, ackQueueDepth),
		rxQ:            make(chan domain.Datagram, datagramQueueDepth),
		eventQ:         make(chan domain.ClientEvent, eventQueueDepth),
		ctrlReq:        make(chan domain.ControlRequest, 1),
		ctrlResp:       make(chan domain.ControlResponse, 1),
		frameRequired:  make(chan struct{}, 1),
		frameGenerated: make(chan struct{}, 1),
	}
}

// emitEvent delivers a client event with the drop-newest policy.
func (res *resources) emitEvent(ev domain.ClientEvent) {
	select {
	case res.eventQ <- ev:
	default:
		log.Printf("Warning: client event queue full, dropping %s %s", ev.Kind, ev.MAC)
		telemetry.FramesDropped.WithLabelValues("event", "queue_full").Inc()
	}
}

// signal latches a one-shot rendezvous channel.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Control is the application's handle on the link. It is handed out by
// New alongside the Runner and shares the resource store with it.
type Control struct {
	res *resources
	mac net.HardwareAddr

	reqMu    sync.Mutex
	inFlight bool
}

// MACAddress returns the host's factory MAC.
func (c *Control) MACAddress() net.HardwareAddr {
	return append(net.HardwareAddr(nil), c.mac...)
}

// Outbound returns the pending-datagram slot. Callers hold its lock while
// writing.
func (c *Control) Outbound() *OutboundSlot {
	return &c.res.outbound
}

// FrameRequired fires when the runner wants the outbound slot refilled.
func (c *Control) FrameRequired() <-chan struct{} {
	return c.res.frameRequired
}

// FrameGenerated tells the runner the slot is ready. Exactly one call per
// FrameRequired.
func (c *Control) FrameGenerated() {
	signal(c.res.frameGenerated)
}

// Inbound is the stream of datagrams received from stations.
func (c *Control) Inbound() <-chan domain.Datagram {
	return c.res.rxQ
}

// Events is the stream of client connect/disconnect events.
func (c *Control) Events() <-chan domain.ClientEvent {
	return c.res.eventQ
}

// SendRequestAndWait issues one control request and blocks for the
// runner's answer. Issuing a second request while one is outstanding is a
// programmer error and panics.
func (c *Control) SendRequestAndWait(ctx context.Context, req domain.ControlRequest) (domain.ControlResponse, error) {
	c.reqMu.Lock()
	if c.inFlight {
		c.reqMu.Unlock()
		panic("mac: control request issued while another is in flight")
	}
	c.inFlight = true
	c.reqMu.Unlock()

	defer func() {
		c.reqMu.Lock()
		c.inFlight = false
		c.reqMu.Unlock()
	}()

	select {
	case c.res.ctrlReq <- req:
	case <-ctx.Done():
		return domain.ControlFailed, ctx.Err()
	}
	select {
	case resp := <-c.res.ctrlResp:
		return resp, nil
	case <-ctx.Done():
		return domain.ControlFailed, ctx.Err()
	}
}
