package mac

import (
	"context"
	"log"
	"log/slog"

	"github.com/mjwells2002/foa-dswifi/internal/adapters/frame"
	"github.com/mjwells2002/foa-dswifi/internal/core/domain"
	"github.com/mjwells2002/foa-dswifi/internal/core/ports"
	"github.com/mjwells2002/foa-dswifi/internal/telemetry"
)

// deauthReasonInactivity is 802.11 reason code 4, "disassociated due to
// inactivity".
const deauthReasonInactivity = 4

// sweepTimeouts walks the roster and evicts every station that has been
// silent past the TTL. The deauthentication frame is best effort; the
// console has already dropped the link by the time we notice.
func (r *Runner) sweepTimeouts(ctx context.Context) {
	gone := r.roster.Expired(r.now(), clientTTL)
	for _, c := range gone {
		slog.Info("Client timed out", "mac", c.MAC.String(), "aid", uint16(c.AID))
		r.res.emitEvent(domain.ClientEvent{Kind: domain.ClientDisconnected, MAC: c.MAC})

		mpdu := frame.BuildDeauth(r.mac, c.MAC, deauthReasonInactivity, r.nextSeq(), 0)
		params := ports.TxParams{
			Rate:           ports.Rate2MbpsShort,
			ErrorBehaviour: ports.TxDrop,
		}
		if err := r.transmit(ctx, mpdu, params); err != nil {
			log.Printf("Warning: deauth to %s failed: %v", c.MAC, err)
		}

		r.roster.Remove(c.AID)
		telemetry.ClientTimeouts.Inc()
	}
	if len(gone) > 0 {
		telemetry.ConnectedClients.Set(float64(r.roster.NumClients()))
	}
}
