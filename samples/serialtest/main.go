// Package main writes a buffer to a serial port with TX wired to RX and prints the first and last
// byte read back.
package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/periphery/logging"
	"go.viam.com/periphery/serial"
)

var logger = logging.NewDebugLogger("serialtest")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Device    string `flag:"device,default=/dev/ttyS10,usage=serial device"`
	BaudRate  int    `flag:"baud,default=115200,usage=baud rate"`
	Size      int    `flag:"size,default=128,usage=bytes to send"`
	TimeoutMs int    `flag:"timeout,default=2000,usage=milliseconds to wait for the echo"`
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) (err error) {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Size < 2 {
		return errors.Errorf("size must be at least 2, got %d", argsParsed.Size)
	}

	port, err := serial.Open(argsParsed.Device, argsParsed.BaudRate)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, port.Close())
	}()

	tx := make([]byte, argsParsed.Size)
	tx[0] = 0xff
	tx[len(tx)-1] = 0x80
	if _, err := port.Write(ctx, tx); err != nil {
		return err
	}
	rx := make([]byte, len(tx))
	n, err := port.Read(ctx, rx, time.Duration(argsParsed.TimeoutMs)*time.Millisecond)
	if err != nil {
		return err
	}
	if n < len(rx) {
		logger.Warnf("only %d of %d bytes came back", n, len(rx))
	}
	logger.Infof("%02X, %02X", rx[0], rx[len(rx)-1])
	return nil
}
