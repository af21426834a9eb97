package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/periphery/components/pwm"
	"go.viam.com/periphery/logging"
)

// fakeChannel lays out an already exported pwmchip0/pwm0 under a temp dir and points the demo at
// it.
func fakeChannel(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	line := filepath.Join(root, "pwmchip0", "pwm0")
	test.That(t, os.MkdirAll(line, 0o755), test.ShouldBeNil)
	for _, f := range []string{"pwmchip0/export", "pwmchip0/unexport", "pwmchip0/pwm0/period", "pwmchip0/pwm0/duty_cycle",
		"pwmchip0/pwm0/enable", "pwmchip0/pwm0/polarity"} {
		test.That(t, os.WriteFile(filepath.Join(root, f), nil, 0o644), test.ShouldBeNil)
	}
	prev := openChannel
	openChannel = func(chip, channel int) (*pwm.Channel, error) {
		return pwm.OpenAt(root, chip, channel)
	}
	t.Cleanup(func() { openChannel = prev })
	return root
}

func readAttr(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "pwmchip0", name))
	test.That(t, err, test.ShouldBeNil)
	return strings.TrimSpace(string(data))
}

func TestFlash(t *testing.T) {
	root := fakeChannel(t)
	logger, logs := logging.NewObservedTestLogger(t)

	err := mainWithArgs(context.Background(),
		[]string{"ledflash", "--period=100", "--step=10", "--sleep=0", "--cycles=2"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("Flashing pwm0 on pwmchip0, period 100 ns").Len(), test.ShouldEqual, 1)

	// Everything is switched off and handed back to the kernel.
	test.That(t, readAttr(t, root, "pwm0/duty_cycle"), test.ShouldEqual, "0")
	test.That(t, readAttr(t, root, "pwm0/period"), test.ShouldEqual, "0")
	test.That(t, readAttr(t, root, "pwm0/enable"), test.ShouldEqual, "0")
	test.That(t, readAttr(t, root, "unexport"), test.ShouldEqual, "0")
}

func TestChangeBrightness(t *testing.T) {
	root := fakeChannel(t)
	ch, err := openChannel(0, 0)
	test.That(t, err, test.ShouldBeNil)
	defer ch.Close()

	err = changeBrightness(context.Background(), ch, ramp{period: 1000, start: 1000, inc: -10, count: 100})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readAttr(t, root, "pwm0/period"), test.ShouldEqual, "1000")
	test.That(t, readAttr(t, root, "pwm0/duty_cycle"), test.ShouldEqual, "10")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = changeBrightness(ctx, ch, ramp{period: 1000, start: 0, inc: 10, count: 100})
	test.That(t, err, test.ShouldEqual, context.Canceled)
	test.That(t, readAttr(t, root, "pwm0/duty_cycle"), test.ShouldEqual, "0")
}

func TestBadArguments(t *testing.T) {
	fakeChannel(t)
	for _, args := range [][]string{
		{"ledflash", "--period=0"},
		{"ledflash", "--step=0"},
		{"ledflash", "--period=10", "--step=20"},
		{"ledflash", "--chip=-1"},
	} {
		err := mainWithArgs(context.Background(), args, logging.NewTestLogger(t))
		test.That(t, err, test.ShouldNotBeNil)
	}
}
