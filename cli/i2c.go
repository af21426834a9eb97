package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/periphery/components/i2c"
)

func openI2CBus(c *cli.Context) (*i2c.Bus, error) {
	board, err := boardFromContext(c)
	if err != nil {
		return nil, err
	}
	name := c.String(i2cFlagBus)
	if c.Bool(i2cFlagPeriph) {
		if _, ok := board.I2CByName(name); !ok {
			return i2c.OpenWith(i2c.PeriphOpener{}, name)
		}
	}
	device, err := i2cBusDevice(board, name)
	if err != nil {
		return nil, err
	}
	if c.Bool(i2cFlagPeriph) {
		return i2c.OpenWith(i2c.PeriphOpener{}, device)
	}
	return i2c.Open(device)
}

// I2CDetectAction prints a map of the addresses that answered, like i2cdetect.
func I2CDetectAction(c *cli.Context) (err error) {
	first, err := parseAddress(c.String(i2cFlagFirst))
	if err != nil {
		return err
	}
	last, err := parseAddress(c.String(i2cFlagLast))
	if err != nil {
		return err
	}
	if first > last {
		return errors.Errorf("first address 0x%02x is past the last one 0x%02x", first, last)
	}
	bus, err := openI2CBus(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, bus.Close())
	}()

	found, err := i2c.Detect(c.Context, bus, first, last)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", detectGrid(first, last, found))
	if len(found) == 0 {
		printf(c.App.Writer, "No devices found on %s", bus.Device())
		return nil
	}
	printf(c.App.Writer, "Found %d devices on %s: %s", len(found), bus.Device(),
		joinAddresses(found))
	return nil
}

func joinAddresses(addrs []uint16) string {
	return strings.Join(lo.Map(addrs, func(a uint16, _ int) string { return fmt.Sprintf("0x%02x", a) }), ", ")
}

// detectGrid lays the scan out sixteen addresses to a row. Addresses that were not probed are
// blank and those that did not answer show as --.
func detectGrid(first, last uint16, found []uint16) string {
	present := lo.SliceToMap(found, func(a uint16) (uint16, bool) { return a, true })
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	header := table.Row{""}
	for col := 0; col < 16; col++ {
		header = append(header, fmt.Sprintf("%x", col))
	}
	t.AppendHeader(header)
	for base := uint16(0); base < 0x80; base += 16 {
		row := table.Row{fmt.Sprintf("%02x", base)}
		for col := uint16(0); col < 16; col++ {
			a := base + col
			switch {
			case a < first || a > last:
				row = append(row, "")
			case present[a]:
				row = append(row, fmt.Sprintf("%02x", a))
			default:
				row = append(row, "--")
			}
		}
		t.AppendRow(row)
	}
	return t.Render()
}

// I2CGetAction reads one or more consecutive registers of a device.
func I2CGetAction(c *cli.Context) (err error) {
	if c.Args().Len() != 2 {
		return errors.Errorf("expected an address and a register, got %d arguments", c.Args().Len())
	}
	addr, err := parseAddress(c.Args().Get(0))
	if err != nil {
		return err
	}
	reg, err := parseByte(c.Args().Get(1))
	if err != nil {
		return err
	}
	count := c.Int(i2cFlagCount)
	if count < 1 || int(reg)+count > 0x100 {
		return errors.Errorf("cannot read %d registers from 0x%02x", count, reg)
	}
	bus, err := openI2CBus(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, bus.Close())
	}()

	data, err := bus.ReadArray(c.Context, addr, reg, count)
	if err != nil {
		return err
	}
	for i, b := range data {
		printf(c.App.Writer, "0x%02x: 0x%02x", int(reg)+i, b)
	}
	return nil
}

// I2CSetAction writes bytes to consecutive registers of a device.
func I2CSetAction(c *cli.Context) (err error) {
	if c.Args().Len() < 3 {
		return errors.New("expected an address, a register and at least one byte")
	}
	addr, err := parseAddress(c.Args().Get(0))
	if err != nil {
		return err
	}
	reg, err := parseByte(c.Args().Get(1))
	if err != nil {
		return err
	}
	data, err := parseBytes(c.Args().Slice()[2:])
	if err != nil {
		return err
	}
	bus, err := openI2CBus(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, bus.Close())
	}()

	if err := bus.Handle(addr).WriteBlockData(c.Context, reg, data); err != nil {
		return err
	}
	printf(c.App.Writer, "Wrote %d bytes to 0x%02x from register 0x%02x", len(data), addr, reg)
	return nil
}
