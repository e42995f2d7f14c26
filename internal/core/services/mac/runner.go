package mac

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mjwells2002/foa-dswifi/internal/adapters/frame"
	"github.com/mjwells2002/foa-dswifi/internal/core/domain"
	"github.com/mjwells2002/foa-dswifi/internal/core/ports"
	"github.com/mjwells2002/foa-dswifi/internal/core/services/roster"
)

// Link timing constants. The poll interval is a conservative placeholder;
// the contract is at most one round in flight.
const (
	beaconInterval = 100 * time.Millisecond
	pollInterval   = 33 * time.Millisecond
	sweepInterval  = 2 * time.Second
	clientTTL      = 1 * time.Second

	usPerClientReply = 998
	ackTurnaround    = 450 * time.Microsecond
	assocSettle      = 500 * time.Microsecond
	authDuration     = 248
	txRetries        = 4
)

// TagFunc builds the vendor beacon tag for the current client count. The
// application layer owns the tag contents; the runner only stamps it into
// the beacon.
type TagFunc func(numClients int) frame.DSBeaconTag

// Config parameterizes a Runner.
type Config struct {
	Radio   ports.Radio
	MAC     net.HardwareAddr
	Channel uint8
	// BeaconTag supplies the vendor tag; nil means an empty-network tag.
	BeaconTag TagFunc
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Runner drives the link. It owns the roster and runs as a single
// goroutine; everything it touches between channel operations needs no
// extra locking except the status snapshot read by the monitor surface.
type Runner struct {
	radio  ports.Radio
	roster *roster.Roster
	res    *resources
	mac    net.HardwareAddr
	tag    TagFunc
	now    func() time.Time
	tracer trace.Tracer

	start time.Time
	seq   uint16

	// Status fields, guarded for the monitor surface.
	statusMu       sync.Mutex
	channel        uint8
	beaconsEnabled bool
	dataSeq        uint16
	lastPolledMask domain.ClientMask
}

// New builds the shared resource store, the runner and the application
// control handle, and programs the radio filters. The store is
// constructed first; runner and control both reference it without owning
// each other.
func New(cfg Config) (*Runner, *Control, error) {
	if len(cfg.MAC) != 6 {
		return nil, nil, fmt.Errorf("mac: invalid host MAC %v", cfg.MAC)
	}
	channel := cfg.Channel
	if channel == 0 {
		channel = 7
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	tag := cfg.BeaconTag
	if tag == nil {
		tag = func(int) frame.DSBeaconTag { return frame.DefaultDSBeaconTag() }
	}

	if err := cfg.Radio.SetAndLockChannel(channel); err != nil {
		return nil, nil, fmt.Errorf("mac: lock channel %d: %w", channel, err)
	}
	if err := cfg.Radio.SetFilter(ports.FilterBSSID, cfg.MAC, nil); err != nil {
		return nil, nil, fmt.Errorf("mac: set BSSID filter: %w", err)
	}
	if err := cfg.Radio.SetFilter(ports.FilterReceiverAddress, cfg.MAC, nil); err != nil {
		return nil, nil, fmt.Errorf("mac: set RA filter: %w", err)
	}
	if err := cfg.Radio.SetFilterEnabled(ports.FilterBSSID, true); err != nil {
		return nil, nil, fmt.Errorf("mac: enable BSSID filter: %w", err)
	}
	if err := cfg.Radio.SetFilterEnabled(ports.FilterReceiverAddress, true); err != nil {
		return nil, nil, fmt.Errorf("mac: enable RA filter: %w", err)
	}

	res := newResources()
	r := &Runner{
		radio:   cfg.Radio,
		roster:  roster.New(),
		res:     res,
		mac:     append(net.HardwareAddr(nil), cfg.MAC...),
		tag:     tag,
		now:     now,
		tracer:  otel.Tracer("dshost/mac"),
		start:   now(),
		channel: channel,
	}
	ctl := &Control{res: res, mac: r.mac}
	return r, ctl, nil
}

// Run executes the MAC loop until the context is cancelled or a fatal
// protocol condition occurs (roster full on a new authentication).
func (r *Runner) Run(ctx context.Context) error {
	slog.Info("MAC runner starting", "mac", r.mac.String(), "channel", r.channel)

	go r.classify(ctx)

	beaconTicker := time.NewTicker(beaconInterval)
	defer beaconTicker.Stop()
	pollTicker := time.NewTicker(pollInterval)
	defer pollTicker.Stop()
	sweepTicker := time.NewTicker(sweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-r.res.mgmtQ:
			if err := r.handleManagement(ctx, f); err != nil {
				return err
			}
		case <-beaconTicker.C:
			r.sendBeacon(ctx)
		case <-pollTicker.C:
			r.pollRound(ctx)
		case <-sweepTicker.C:
			r.sweepTimeouts(ctx)
		case req := <-r.res.ctrlReq:
			r.handleControl(req)
		}
	}
}

// nextSeq hands out 802.11 sequence numbers.
func (r *Runner) nextSeq() uint16 {
	s := r.seq
	r.seq = (r.seq + 1) & 0x0FFF
	return s
}

func (r *Runner) handleControl(req domain.ControlRequest) {
	resp := domain.ControlSuccess
	switch req.Kind {
	case domain.ControlSetChannel:
		if err := r.radio.SetAndLockChannel(req.Channel); err != nil {
			slog.Error("Set channel failed", "channel", req.Channel, "error", err)
			resp = domain.ControlFailed
		} else {
			r.statusMu.Lock()
			r.channel = req.Channel
			r.statusMu.Unlock()
		}
	case domain.ControlSetBeaconsEnabled:
		r.statusMu.Lock()
		r.beaconsEnabled = req.Enabled
		r.statusMu.Unlock()
	default:
		resp = domain.ControlFailed
	}
	r.res.ctrlResp <- resp
}

// Status snapshots the link for the monitor surface.
func (r *Runner) Status() ports.LinkStatus {
	r.statusMu.Lock()
	st := ports.LinkStatus{
		MAC:            r.mac.String(),
		Channel:        r.channel,
		BeaconsEnabled: r.beaconsEnabled,
		DataSeq:        r.dataSeq,
	}
	r.statusMu.Unlock()

	st.ClientMask = uint16(r.roster.AllClientsMask())
	for _, c := range r.roster.Snapshot() {
		st.Clients = append(st.Clients, ports.ClientInfo{
			MAC:       c.MAC.String(),
			AID:       uint16(c.AID),
			State:     c.State.String(),
			LastHeard: c.LastHeard,
		})
	}
	return st
}
