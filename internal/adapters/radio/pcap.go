package radio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"net"
	"os/exec"
	"sync"

	"github.com/google/gopacket/pcap"

	"github.com/mjwells2002/foa-dswifi/internal/core/ports"
)

// execCommand allows mocking in tests.
var execCommand = exec.Command

// Pcap drives a monitor-mode 802.11 interface through libpcap. The DS
// protocol's RX filter banks have no hardware counterpart on commodity
// cards, so filtering happens in software on the capture path.
type Pcap struct {
	iface  string
	handle *pcap.Handle

	mu      sync.Mutex
	filters map[ports.FilterBank]net.HardwareAddr
	enabled map[ports.FilterBank]bool

	rx     chan ports.RxBuffer
	cancel context.CancelFunc
}

// radiotapTx is the minimal radiotap header prepended on inject: version
// 0, length 10, TX flags present with NOACK set. The kernel picks the rate.
var radiotapTx = []byte{
	0x00, 0x00, // version, pad
	0x0A, 0x00, // length
	0x00, 0x80, 0x00, 0x00, // present: TX flags
	0x08, 0x00, // TX flags: NOACK
}

// NewPcap opens iface for capture and injection. The interface must
// already be in monitor mode.
func NewPcap(iface string) (*Pcap, error) {
	handle, err := pcap.OpenLive(iface, 4096, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("radio: pcap open %s: %w", iface, err)
	}
	p := &Pcap{
		iface:   iface,
		handle:  handle,
		filters: make(map[ports.FilterBank]net.HardwareAddr),
		enabled: make(map[ports.FilterBank]bool),
		rx:      make(chan ports.RxBuffer, 32),
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.captureLoop(ctx)
	return p, nil
}

// SetAndLockChannel shells out to iw; there is no portable ioctl for
// channel tuning on nl80211 drivers.
func (p *Pcap) SetAndLockChannel(ch uint8) error {
	cmd := execCommand("iw", "dev", p.iface, "set", "channel", fmt.Sprintf("%d", ch))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("radio: set channel %d on %s: %v (%s)", ch, p.iface, err, bytes.TrimSpace(out))
	}
	return nil
}

func (p *Pcap) SetFilter(bank ports.FilterBank, addr net.HardwareAddr, _ net.HardwareAddr) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filters[bank] = append(net.HardwareAddr(nil), addr...)
	return nil
}

func (p *Pcap) SetFilterEnabled(bank ports.FilterBank, on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled[bank] = on
	return nil
}

func (p *Pcap) Transmit(_ context.Context, mpdu []byte, params ports.TxParams) error {
	pkt := make([]byte, 0, len(radiotapTx)+len(mpdu))
	pkt = append(pkt, radiotapTx...)
	pkt = append(pkt, mpdu...)

	attempts := 1
	if params.ErrorBehaviour == ports.TxRetry && params.MaxRetries > 0 {
		attempts += params.MaxRetries
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = p.handle.WritePacketData(pkt); err == nil {
			return nil
		}
	}
	return fmt.Errorf("radio: inject on %s: %w", p.iface, err)
}

func (p *Pcap) Receive() <-chan ports.RxBuffer {
	return p.rx
}

func (p *Pcap) captureLoop(ctx context.Context) {
	defer close(p.rx)
	for {
		if ctx.Err() != nil {
			return
		}
		data, ci, err := p.handle.ReadPacketData()
		if err != nil {
			if err == pcap.NextErrorTimeoutExpired {
				continue
			}
			log.Printf("Warning: capture on %s stopped: %v", p.iface, err)
			return
		}
		mpdu, ok := stripRadiotap(data)
		if !ok || !p.passesFilters(mpdu) {
			continue
		}
		select {
		case p.rx <- ports.RxBuffer{MPDU: append([]byte(nil), mpdu...), At: ci.Timestamp}:
		default:
			// The classifier is behind; shed the frame here rather than
			// stall the capture handle.
		}
	}
}

// stripRadiotap removes the variable-length radiotap header.
func stripRadiotap(data []byte) ([]byte, bool) {
	if len(data) < 4 {
		return nil, false
	}
	rtLen := int(binary.LittleEndian.Uint16(data[2:4]))
	if rtLen < 8 || rtLen > len(data) {
		return nil, false
	}
	return data[rtLen:], true
}

// passesFilters applies the software stand-ins for the BSSID and
// receiver-address banks. Broadcast and the DS group destinations always
// pass.
func (p *Pcap) passesFilters(mpdu []byte) bool {
	if len(mpdu) < 22 {
		return false
	}
	addr1 := net.HardwareAddr(mpdu[4:10])
	if addr1[0]&0x01 != 0 {
		return true
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if on := p.enabled[ports.FilterReceiverAddress]; on {
		if want := p.filters[ports.FilterReceiverAddress]; len(want) == 6 && !bytes.Equal(addr1, want) {
			return false
		}
	}
	if on := p.enabled[ports.FilterBSSID]; on {
		addr3 := net.HardwareAddr(mpdu[16:22])
		if want := p.filters[ports.FilterBSSID]; len(want) == 6 && !bytes.Equal(addr3, want) {
			return false
		}
	}
	return true
}

func (p *Pcap) Close() error {
	p.cancel()
	p.handle.Close()
	return nil
}
