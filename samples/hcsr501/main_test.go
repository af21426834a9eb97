package main

import (
	"context"
	"syscall"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/periphery/components/gpio"
	"go.viam.com/periphery/logging"
	"go.viam.com/periphery/native"
	"go.viam.com/periphery/testutils/inject"
)

func useSensor(t *testing.T, line gpio.EventLineConn) *gpio.Edge {
	t.Helper()
	var requested gpio.Edge
	chip := &inject.GPIOChip{
		OpenEventLineFunc: func(offset uint32, edge gpio.Edge, opts gpio.LineOptions, consumer string) (gpio.EventLineConn, error) {
			if line == nil {
				return nil, syscall.EBUSY
			}
			test.That(t, offset, test.ShouldEqual, 203)
			requested = edge
			return line, nil
		},
		CloseFunc: func() error { return nil },
	}
	prev := gpio.DefaultOpener
	gpio.DefaultOpener = inject.GPIOOpener(chip)
	t.Cleanup(func() { gpio.DefaultOpener = prev })
	return &requested
}

func TestMotion(t *testing.T) {
	line, edges := inject.NewGPIOEdgeSource()
	requested := useSensor(t, line)
	logger, logs := logging.NewObservedTestLogger(t)

	at := time.Date(2024, 7, 1, 22, 0, 5, 0, time.Local)
	go func() {
		edges <- gpio.RawEvent{Rising: true, Time: at}
		edges <- gpio.RawEvent{Rising: false, Time: at.Add(3 * time.Second)}
	}()
	err := mainWithArgs(context.Background(), []string{"hcsr501", "--timeout=200"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *requested, test.ShouldEqual, gpio.BothEdges)
	test.That(t, logs.FilterMessage("Motion detected 07/01/2024 22:00:05").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("No motion       07/01/2024 22:00:08").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("Timeout").Len(), test.ShouldEqual, 1)
}

func TestRisingOnly(t *testing.T) {
	line, _ := inject.NewGPIOEdgeSource()
	requested := useSensor(t, line)
	err := mainWithArgs(context.Background(), []string{"hcsr501", "--edge=rising", "--timeout=1"}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *requested, test.ShouldEqual, gpio.RisingEdge)

	err = mainWithArgs(context.Background(), []string{"hcsr501", "--edge=sideways"}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLineBusy(t *testing.T) {
	useSensor(t, nil)
	err := mainWithArgs(context.Background(), []string{"hcsr501"}, logging.NewTestLogger(t))
	test.That(t, native.Code(err), test.ShouldEqual, -int(syscall.EBUSY))
}
