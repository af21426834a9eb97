package cli

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/periphery/serial"
)

const defaultSerialTimeout = 2 * time.Second

// listSerialPorts is swapped out by tests.
var listSerialPorts = serial.List

// SerialListAction prints the serial ports of this system.
func SerialListAction(c *cli.Context) error {
	ports, err := listSerialPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		printf(c.App.Writer, "No serial ports found")
		return nil
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Path", "Type", "VID", "PID", "Product"})
	for _, p := range ports {
		t.AppendRow(table.Row{p.Path, string(p.Type), p.VID, p.PID, p.Product})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

// SerialXferAction writes the given bytes and prints what comes back before the timeout.
func SerialXferAction(c *cli.Context) (err error) {
	tx, err := parseBytes(c.Args().Slice())
	if err != nil {
		return err
	}
	board, err := boardFromContext(c)
	if err != nil {
		return err
	}
	device, baud, err := serialDevice(board, c.String(serialFlagPort))
	if err != nil {
		return err
	}
	if b := c.Int(serialFlagBaud); b != 0 {
		baud = b
	}
	want := c.Int(serialFlagRead)
	if want < 0 {
		want = len(tx)
	}

	port, err := serial.Open(device, baud)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, port.Close())
	}()

	if _, err := port.Write(c.Context, tx); err != nil {
		return err
	}
	if want == 0 {
		return nil
	}
	rx := make([]byte, want)
	n, err := port.Read(c.Context, rx, c.Duration(serialFlagTimeout))
	if err != nil {
		return err
	}
	if n < want {
		warningf(c.App.ErrWriter, "only %d of %d bytes came back", n, want)
	}
	if n > 0 {
		printf(c.App.Writer, "%s", hexBytes(rx[:n]))
	}
	return nil
}
