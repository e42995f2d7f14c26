package mac

import (
	"context"
	"log"

	"github.com/mjwells2002/foa-dswifi/internal/adapters/frame"
	"github.com/mjwells2002/foa-dswifi/internal/core/ports"
	"github.com/mjwells2002/foa-dswifi/internal/telemetry"
)

// sendBeacon emits one vendor beacon, best effort. Errors are dropped;
// the next tick sends another.
func (r *Runner) sendBeacon(ctx context.Context) {
	r.statusMu.Lock()
	enabled := r.beaconsEnabled
	channel := r.channel
	r.statusMu.Unlock()
	if !enabled {
		return
	}

	mpdu := frame.BuildBeacon(frame.BeaconParams{
		HostMAC:     r.mac,
		TimestampUS: uint64(r.now().Sub(r.start).Microseconds()),
		Seq:         r.nextSeq(),
		Channel:     channel,
		Tag:         r.tag(r.roster.NumClients()),
	})

	params := ports.TxParams{
		Rate:           ports.Rate2MbpsShort,
		ErrorBehaviour: ports.TxDrop,
	}
	if err := r.transmit(ctx, mpdu, params); err != nil {
		log.Printf("Warning: beacon transmit failed: %v", err)
		return
	}
	telemetry.BeaconsSent.Inc()
}
