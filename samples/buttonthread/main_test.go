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

func useButton(t *testing.T) chan<- gpio.RawEvent {
	t.Helper()
	line, edges := inject.NewGPIOEdgeSource()
	chip := &inject.GPIOChip{
		InfoFunc: func() (gpio.ChipInfo, error) {
			return gpio.ChipInfo{Name: "gpiochip1", Label: "1f02c00.pinctrl", NumLines: 32}, nil
		},
		OpenEventLineFunc: func(offset uint32, edge gpio.Edge, opts gpio.LineOptions, consumer string) (gpio.EventLineConn, error) {
			test.That(t, edge, test.ShouldEqual, gpio.BothEdges)
			return line, nil
		},
		CloseFunc: func() error { return nil },
	}
	prev := gpio.DefaultOpener
	gpio.DefaultOpener = inject.GPIOOpener(chip)
	t.Cleanup(func() { gpio.DefaultOpener = prev })
	return edges
}

func TestWorkerTimesOut(t *testing.T) {
	useButton(t)
	logger, logs := logging.NewObservedTestLogger(t)

	err := mainWithArgs(context.Background(),
		[]string{"buttonthread", "--timeout=20", "--interval=500", "--iterations=30"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("Thread running").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("Thread timed out").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("Thread exit").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("Main program doing stuff, press button").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("Waiting for thread to finish").Len(), test.ShouldEqual, 0)
}

func TestEdgesThenStop(t *testing.T) {
	edges := useButton(t)
	logger, logs := logging.NewObservedTestLogger(t)

	at := time.Date(2024, 3, 9, 14, 5, 30, 0, time.Local)
	go func() {
		edges <- gpio.RawEvent{Rising: false, Time: at}
		edges <- gpio.RawEvent{Rising: true, Time: at.Add(time.Second)}
	}()
	err := mainWithArgs(context.Background(),
		[]string{"buttonthread", "--timeout=60000", "--interval=50", "--iterations=3", "--wait=10"}, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, logs.FilterMessage("Falling edge timestamp 03/09/2024 14:05:30").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("Rising  edge timestamp 03/09/2024 14:05:31").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("Main program doing stuff, press button").Len(), test.ShouldEqual, 3)
	test.That(t, logs.FilterMessage("Waiting for thread to finish").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("Thread still running, stopping it").Len(), test.ShouldEqual, 1)
	// Stopping is acknowledged: the worker has exited by the time main returns.
	test.That(t, logs.FilterMessage("Thread exit").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("Thread timed out").Len(), test.ShouldEqual, 0)
}

func TestCancelled(t *testing.T) {
	useButton(t)
	logger, logs := logging.NewObservedTestLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mainWithArgs(ctx, []string{"buttonthread", "--timeout=60000"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("Thread running").Len(), test.ShouldEqual, 0)
	test.That(t, logs.FilterMessage("Main program doing stuff, press button").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterLevelExact(logging.ERROR.AsZap()).Len(), test.ShouldEqual, 0)
}
