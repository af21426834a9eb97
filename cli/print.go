package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.viam.com/periphery/logging"
)

// timestampLayout matches how the samples print edge timestamps.
const timestampLayout = "01/02/2006 15:04:05"

// printf prints a line to w.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a warning line to w.
func warningf(w io.Writer, format string, a ...interface{}) {
	printf(w, "Warning: "+format, a...)
}

// hexBytes formats data the way i2cget and spidev_test do, upper case and space separated.
func hexBytes(data []byte) string {
	return strings.Join(lo.Map(data, func(b byte, _ int) string {
		return fmt.Sprintf("%02X", b)
	}), " ")
}

// loggerFromContext returns the logger background workers report to. --debug wins over
// --log-level.
func loggerFromContext(c *cli.Context) (logging.Logger, error) {
	logger := logging.NewLogger("periphctl")
	if c.Bool(generalFlagDebug) {
		logger.SetLevel(logging.DEBUG)
		return logger, nil
	}
	level, err := logging.LevelFromString(c.String(generalFlagLogLevel))
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	return logger, nil
}
