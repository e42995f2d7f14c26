package frame

import "github.com/mjwells2002/foa-dswifi/internal/core/ports"

// AirtimeUS estimates the on-air time in microseconds of an MPDU of n
// bytes at the given PHY rate, preamble and PLCP header included. The DS
// hosts put this estimate straight into the duration field.
func AirtimeUS(n int, rate ports.PhyRate) uint16 {
	var overhead, payload int
	switch rate {
	case ports.Rate2MbpsShort:
		overhead = 96 + 24
		payload = ceilDiv(8*n, 2)
	case ports.Rate2MbpsLong:
		overhead = 192 + 24
		payload = ceilDiv(8*n, 2)
	default: // 1 Mb/s long preamble
		overhead = 192 + 48
		payload = 8 * n
	}
	return uint16(overhead + payload)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
