package mac

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/mjwells2002/foa-dswifi/internal/adapters/frame"
	"github.com/mjwells2002/foa-dswifi/internal/core/domain"
	"github.com/mjwells2002/foa-dswifi/internal/core/ports"
	"github.com/mjwells2002/foa-dswifi/internal/core/services/roster"
	"github.com/mjwells2002/foa-dswifi/internal/telemetry"
)

// mgmtTxParams are shared by the authentication and association replies.
func mgmtTxParams(duration uint16) ports.TxParams {
	return ports.TxParams{
		Rate:           ports.Rate2MbpsShort,
		WaitForAck:     true,
		DurationUS:     duration,
		ErrorBehaviour: ports.TxRetry,
		MaxRetries:     txRetries,
	}
}

// handleManagement dissects one management MPDU and advances the join
// state machine. The only error it returns is roster exhaustion, which is
// fatal to the session.
func (r *Runner) handleManagement(ctx context.Context, f rxFrame) error {
	pkt := gopacket.NewPacket(f.mpdu, layers.LayerTypeDot11, gopacket.NoCopy)
	dot11Layer := pkt.Layer(layers.LayerTypeDot11)
	if dot11Layer == nil {
		return nil
	}
	dot11, ok := dot11Layer.(*layers.Dot11)
	if !ok {
		return nil
	}
	src := dot11.Address2

	switch dot11.Type {
	case layers.Dot11TypeMgmtAuthentication:
		return r.handleAuth(ctx, pkt, src, f.at)
	case layers.Dot11TypeMgmtAssociationReq:
		r.handleAssocRequest(ctx, src, f.at)
	case layers.Dot11TypeMgmtDeauthentication:
		r.handleDeauth(src)
	default:
		slog.Debug("Dropping management frame", "subtype", dot11.Type.String(), "from", src.String())
	}
	return nil
}

func (r *Runner) handleAuth(ctx context.Context, pkt gopacket.Packet, src net.HardwareAddr, at time.Time) error {
	authLayer := pkt.Layer(layers.LayerTypeDot11MgmtAuthentication)
	if authLayer == nil {
		return nil
	}
	auth := authLayer.(*layers.Dot11MgmtAuthentication)
	if auth.Algorithm != layers.Dot11AlgorithmOpen {
		// The protocol is open-system only.
		return nil
	}
	if r.roster.Has(src) {
		// TODO: restart the association instead of refusing; a console
		// that rebooted mid-join keeps its stale slot until the sweep.
		log.Printf("Warning: auth from already-known client %s, ignoring", src)
		return nil
	}

	aid, err := r.roster.NextFreeAID()
	if err != nil {
		slog.Error("Roster full, refusing new client", "mac", src.String())
		return fmt.Errorf("mac: authentication from %s: %w", src, roster.ErrFull)
	}

	r.roster.Add(domain.Client{
		MAC:       src,
		AID:       aid,
		State:     domain.StateAssociating,
		LastHeard: at,
	})

	mpdu := frame.BuildAuthResponse(r.mac, src, r.nextSeq(), authDuration)
	if err := r.transmit(ctx, mpdu, mgmtTxParams(authDuration)); err != nil {
		log.Printf("Warning: auth response to %s failed: %v", src, err)
	}
	return nil
}

func (r *Runner) handleAssocRequest(ctx context.Context, src net.HardwareAddr, at time.Time) {
	c, ok := r.roster.Get(src)
	if !ok || c.State != domain.StateAssociating {
		slog.Debug("Association request from unknown or settled client", "mac", src.String())
		return
	}

	mpdu := frame.BuildAssocResponse(r.mac, src, c.AID, r.nextSeq(), authDuration)
	if err := r.transmit(ctx, mpdu, mgmtTxParams(authDuration)); err != nil {
		log.Printf("Warning: association response to %s failed: %v", src, err)
		return
	}

	r.roster.UpdateState(src, domain.StateConnected, r.now())
	telemetry.ConnectedClients.Set(float64(r.roster.NumClients()))
	r.res.emitEvent(domain.ClientEvent{Kind: domain.ClientConnected, MAC: append(net.HardwareAddr(nil), src...)})
	slog.Info("Client connected", "mac", src.String(), "aid", uint16(c.AID))

	// Give the console a quiet interval to settle before the next poll.
	time.Sleep(assocSettle)
}

func (r *Runner) handleDeauth(src net.HardwareAddr) {
	c, ok := r.roster.Get(src)
	if !ok {
		return
	}
	r.res.emitEvent(domain.ClientEvent{Kind: domain.ClientDisconnected, MAC: append(net.HardwareAddr(nil), src...)})
	r.roster.Remove(c.AID)
	telemetry.ConnectedClients.Set(float64(r.roster.NumClients()))
	slog.Info("Client deauthenticated", "mac", src.String(), "aid", uint16(c.AID))
}

// transmit pushes one MPDU to the radio, counting attempts and failures.
func (r *Runner) transmit(ctx context.Context, mpdu []byte, params ports.TxParams) error {
	telemetry.TxAttempts.Inc()
	if err := r.radio.Transmit(ctx, mpdu, params); err != nil {
		telemetry.TxErrors.Inc()
		return err
	}
	return nil
}
