package mac

import (
	"bytes"
	"context"
	"encoding/binary"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mjwells2002/foa-dswifi/internal/adapters/frame"
	"github.com/mjwells2002/foa-dswifi/internal/core/domain"
	"github.com/mjwells2002/foa-dswifi/internal/core/ports"
	"github.com/mjwells2002/foa-dswifi/internal/telemetry"
)

// pollRound runs one host-polled data exchange: transmit a single frame
// whose header enumerates the polled stations, then harvest each
// station's CF-Ack within the round deadline. Stations that miss the
// deadline stay in lastPolledMask and are re-polled next tick without a
// fresh application payload.
func (r *Runner) pollRound(ctx context.Context) {
	all := r.roster.AllClientsMask()
	if all.IsEmpty() {
		return
	}

	ctx, span := r.tracer.Start(ctx, "mac.pollRound")
	defer span.End()

	r.statusMu.Lock()
	carried := r.lastPolledMask
	r.statusMu.Unlock()

	var mask domain.ClientMask
	if !carried.IsEmpty() {
		// Stragglers get one more attempt with the payload they missed.
		mask = carried
	} else {
		if !r.requestFrame(ctx) {
			return
		}
		mask = all
	}

	mpdu, seq := r.buildPollFrame(mask)
	span.SetAttributes(
		attribute.Int("mask", int(mask)),
		attribute.Int("data_seq", int(seq)),
	)

	r.drainStaleAcks()

	params := ports.TxParams{
		Rate:           ports.Rate2MbpsShort,
		DurationUS:     frame.AirtimeUS(len(mpdu), ports.Rate2MbpsShort),
		ErrorBehaviour: ports.TxRetry,
		MaxRetries:     txRetries,
	}
	if err := r.transmit(ctx, mpdu, params); err != nil {
		log.Printf("Warning: poll frame transmit failed: %v", err)
		// The round times out naturally; stragglers carry over.
	}
	telemetry.PollRounds.Inc()

	remaining := r.awaitAcks(ctx, mask, span)

	r.statusMu.Lock()
	r.lastPolledMask = remaining
	r.statusMu.Unlock()
}

// requestFrame runs the FrameRequired/FrameGenerated rendezvous with the
// application. Returns false only on context cancellation.
func (r *Runner) requestFrame(ctx context.Context) bool {
	signal(r.res.frameRequired)
	select {
	case <-r.res.frameGenerated:
		return true
	case <-ctx.Done():
		return false
	}
}

// buildPollFrame serializes the pending datagram into a Data+CF-Poll
// MPDU and advances the data sequence counter.
func (r *Runner) buildPollFrame(mask domain.ClientMask) ([]byte, uint16) {
	slot := &r.res.outbound
	slot.Lock()
	payload := append([]byte(nil), slot.Data[:slot.Size]...)
	flags := slot.Flags
	slot.Unlock()

	r.statusMu.Lock()
	seq := r.dataSeq
	r.dataSeq++
	r.statusMu.Unlock()

	body := frame.HostToClientFrame{
		USPerClientReply: usPerClientReply,
		ClientTargetMask: mask,
		Flags:            flags,
		Footer: &frame.HostToClientFooter{
			DataSeq:          seq,
			ClientTargetMask: mask,
		},
	}
	if len(payload) > 0 {
		body.Payload = payload
	}
	mpdu := frame.BuildPollFrame(r.mac, r.nextSeq(), 0, &body)
	// The duration field covers the frame's own air time; it is known
	// only once the full MPDU length is.
	binary.LittleEndian.PutUint16(mpdu[2:4], frame.AirtimeUS(len(mpdu), ports.Rate2MbpsShort))
	return mpdu, seq
}

// drainStaleAcks clears acks left over from a previous round.
func (r *Runner) drainStaleAcks() {
	for {
		select {
		case rec := <-r.res.ackQ:
			log.Printf("Warning: discarding stale ack from %s", rec.mac)
		default:
			return
		}
	}
}

// awaitAcks harvests CF-Acks for the polled set until the mask empties or
// the round deadline fires. Each matched ack refreshes the client's
// last-heard stamp and triggers the host's link-layer acknowledgement
// after the 450 µs turnaround.
func (r *Runner) awaitAcks(ctx context.Context, mask domain.ClientMask, span trace.Span) domain.ClientMask {
	outstanding := mask
	deadline := time.Duration(usPerClientReply*5*mask.NumClients()) * time.Microsecond
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	for !outstanding.IsEmpty() {
		select {
		case <-ctx.Done():
			return outstanding
		case <-timer.C:
			log.Printf("Warning: poll round deadline, stragglers mask=%#04x", uint16(outstanding))
			telemetry.PollTimeouts.Inc()
			span.SetAttributes(attribute.Int("stragglers", int(outstanding)))
			return outstanding
		case rec := <-r.res.ackQ:
			aid, ok := r.lookupPolled(rec.mac, outstanding)
			if !ok {
				// Duplicate or unknown transmitter; bit already clear.
				continue
			}
			r.roster.Touch(aid, rec.at)
			outstanding.Subtract(aid.MaskBit())
			telemetry.AcksMatched.Inc()

			time.Sleep(ackTurnaround)
			ack := frame.BuildAckFrame(r.mac, r.nextSeq(), frame.AirtimeUS(frame.HeaderLen+4, ports.Rate2MbpsShort))
			params := ports.TxParams{
				Rate:           ports.Rate2MbpsShort,
				DurationUS:     frame.AirtimeUS(frame.HeaderLen+4, ports.Rate2MbpsShort),
				ErrorBehaviour: ports.TxDrop,
			}
			if err := r.transmit(ctx, ack, params); err != nil {
				log.Printf("Warning: link ack transmit failed: %v", err)
			}
		}
	}
	return outstanding
}

// lookupPolled maps an ack transmitter to its AID if that station is
// still outstanding in this round.
func (r *Runner) lookupPolled(mac []byte, outstanding domain.ClientMask) (domain.AID, bool) {
	for _, c := range r.roster.Snapshot() {
		if bytes.Equal(c.MAC, mac) {
			if outstanding.Contains(c.AID.MaskBit()) {
				return c.AID, true
			}
			return 0, false
		}
	}
	return 0, false
}
