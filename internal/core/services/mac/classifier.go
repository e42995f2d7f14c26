package mac

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/mjwells2002/foa-dswifi/internal/adapters/frame"
	"github.com/mjwells2002/foa-dswifi/internal/core/domain"
	"github.com/mjwells2002/foa-dswifi/internal/telemetry"
)

// classify drains the radio and routes each MPDU to the right queue. It
// reads the frame-control field and the transmitter address, and decodes
// the client->host body of Data+CF-Ack replies; management frames are
// copied out unparsed and dissected on the runner side of a queue.
func (r *Runner) classify(ctx context.Context) {
	rx := r.radio.Receive()
	for {
		select {
		case <-ctx.Done():
			return
		case buf, ok := <-rx:
			if !ok {
				return
			}
			r.classifyOne(buf.MPDU, buf.At)
		}
	}
}

func (r *Runner) classifyOne(mpdu []byte, at time.Time) {
	fc, ok := frame.ParseFrameControl(mpdu)
	if !ok {
		return
	}

	switch {
	case fc.Type == frame.TypeManagement:
		telemetry.FramesReceived.WithLabelValues("management").Inc()
		f := rxFrame{mpdu: append([]byte(nil), mpdu...), at: at}
		select {
		case r.res.mgmtQ <- f:
		default:
			// Non-fatal: 802.11 retries cover a dropped management frame.
			log.Printf("Warning: management queue full, dropping frame")
			telemetry.FramesDropped.WithLabelValues("management", "queue_full").Inc()
		}

	case fc.Type == frame.TypeData && fc.Subtype == frame.SubtypeCFAck:
		telemetry.FramesReceived.WithLabelValues("cf_ack").Inc()
		r.enqueueAck(mpdu, at)

	case fc.Type == frame.TypeData && fc.Subtype == frame.SubtypeDataCFAck:
		telemetry.FramesReceived.WithLabelValues("data_cf_ack").Inc()
		r.handleDataReply(mpdu, at)

	default:
		log.Printf("Warning: dropping frame type %d subtype %d", fc.Type, fc.Subtype)
		telemetry.FramesDropped.WithLabelValues("other", "unhandled").Inc()
	}
}

func (r *Runner) enqueueAck(mpdu []byte, at time.Time) {
	tx, ok := frame.Transmitter(mpdu)
	if !ok {
		return
	}
	rec := ackRecord{mac: append(net.HardwareAddr(nil), tx...), at: at}
	select {
	case r.res.ackQ <- rec:
	default:
		// Tolerated: the poll round times out the straggler.
		telemetry.FramesDropped.WithLabelValues("cf_ack", "queue_full").Inc()
	}
}

func (r *Runner) handleDataReply(mpdu []byte, at time.Time) {
	body, ok := frame.Body(mpdu)
	if !ok {
		return
	}
	reply, err := frame.DecodeClientToHost(body)
	if err != nil {
		telemetry.FramesDropped.WithLabelValues("data_cf_ack", "malformed").Inc()
		return
	}
	tx, ok := frame.Transmitter(mpdu)
	if !ok {
		return
	}

	if reply.PayloadSize > 0 {
		dg := domain.Datagram{
			Size:   reply.PayloadSize,
			Source: append(net.HardwareAddr(nil), tx...),
		}
		copy(dg.Data[:], reply.Payload[:reply.PayloadSize])
		select {
		case r.res.rxQ <- dg:
		default:
			log.Printf("Warning: datagram queue full, dropping %d bytes from %s", dg.Size, dg.Source)
			telemetry.FramesDropped.WithLabelValues("datagram", "queue_full").Inc()
		}
	}

	r.enqueueAck(mpdu, at)
}
