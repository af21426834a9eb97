package main

import (
	"context"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/periphery/components/gpio"
	"go.viam.com/periphery/logging"
	"go.viam.com/periphery/testutils/inject"
)

func useButton(t *testing.T) (chan<- gpio.RawEvent, *gpio.Edge) {
	t.Helper()
	line, edges := inject.NewGPIOEdgeSource()
	var requested gpio.Edge
	chip := &inject.GPIOChip{
		InfoFunc: func() (gpio.ChipInfo, error) {
			return gpio.ChipInfo{Name: "gpiochip1", Label: "1f02c00.pinctrl", NumLines: 32}, nil
		},
		OpenEventLineFunc: func(offset uint32, edge gpio.Edge, opts gpio.LineOptions, consumer string) (gpio.EventLineConn, error) {
			test.That(t, offset, test.ShouldEqual, 3)
			requested = edge
			return line, nil
		},
		CloseFunc: func() error { return nil },
	}
	prev := gpio.DefaultOpener
	gpio.DefaultOpener = inject.GPIOOpener(chip)
	t.Cleanup(func() { gpio.DefaultOpener = prev })
	return edges, &requested
}

func TestPressed(t *testing.T) {
	edges, requested := useButton(t)
	logger, logs := logging.NewObservedTestLogger(t)

	pressedAt := time.Date(2024, 3, 9, 14, 5, 30, 0, time.Local)
	go func() {
		edges <- gpio.RawEvent{Rising: false, Time: pressedAt}
	}()
	err := mainWithArgs(context.Background(), []string{"buttonwait"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *requested, test.ShouldEqual, gpio.FallingEdge)
	test.That(t, logs.FilterMessage("Falling edge timestamp 03/09/2024 14:05:30").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("Timed out").Len(), test.ShouldEqual, 0)
}

func TestTimedOut(t *testing.T) {
	useButton(t)
	logger, logs := logging.NewObservedTestLogger(t)

	err := mainWithArgs(context.Background(), []string{"buttonwait", "--timeout=10"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("Press button within 10ms").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("Timed out").Len(), test.ShouldEqual, 1)
}

func TestCancelled(t *testing.T) {
	useButton(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := mainWithArgs(ctx, []string{"buttonwait"}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldEqual, context.Canceled)
}
