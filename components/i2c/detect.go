package i2c

import (
	"context"

	"go.viam.com/periphery/native"
)

// Addresses outside this range are reserved and skipped by a default scan.
const (
	FirstScanAddress uint16 = 0x03
	LastScanAddress  uint16 = 0x77
)

// Detect probes every address in [first, last] with a one byte read and returns those that
// acknowledged. A failed probe just means nothing answered; only cancellation or a closed bus stop
// the scan early.
func Detect(ctx context.Context, bus *Bus, first, last uint16) ([]uint16, error) {
	var found []uint16
	for a := int(first); a <= int(last); a++ {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		if bus.lc.Closed() {
			return found, native.ErrClosed
		}
		if err := bus.Transfer(ctx, ReadMessage(uint16(a), 1)); err == nil {
			found = append(found, uint16(a))
		}
	}
	return found, nil
}
