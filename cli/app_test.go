package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	ser "go.bug.st/serial"
	"go.viam.com/test"

	"go.viam.com/periphery/components/gpio"
	"go.viam.com/periphery/components/i2c"
	"go.viam.com/periphery/components/pwm"
	"go.viam.com/periphery/components/spi"
	"go.viam.com/periphery/serial"
	"go.viam.com/periphery/testutils/inject"
)

func runApp(ctx context.Context, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	err := NewApp(out, errOut).RunContext(ctx, append([]string{"periphctl"}, args...))
	return out.String(), errOut.String(), err
}

func useI2C(t *testing.T, conn i2c.Conn) {
	t.Helper()
	prev := i2c.DefaultOpener
	i2c.DefaultOpener = inject.I2COpener(conn)
	t.Cleanup(func() { i2c.DefaultOpener = prev })
}

func useGPIO(t *testing.T, chip gpio.ChipConn, opened *[]string) {
	t.Helper()
	prev := gpio.DefaultOpener
	gpio.DefaultOpener = gpio.OpenerFunc(func(path string) (gpio.ChipConn, error) {
		if opened != nil {
			*opened = append(*opened, path)
		}
		return chip, nil
	})
	t.Cleanup(func() { gpio.DefaultOpener = prev })
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.json5")
	test.That(t, os.WriteFile(path, []byte(contents), 0o644), test.ShouldBeNil)
	return path
}

func TestI2CDetect(t *testing.T) {
	present := map[uint16]bool{0x48: true, 0x68: true}
	useI2C(t, &inject.I2CConn{
		TransferFunc: func(msgs []i2c.Message) error {
			if present[msgs[0].Addr] {
				return nil
			}
			return syscall.ENXIO
		},
		CloseFunc: func() error { return nil },
	})

	out, _, err := runApp(context.Background(), "i2c", "detect")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "Found 2 devices on /dev/i2c-0: 0x48, 0x68")
	test.That(t, out, test.ShouldContainSubstring, "--")

	out, _, err = runApp(context.Background(), "i2c", "detect", "--first=0x50", "--last=0x60")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "No devices found on /dev/i2c-0")

	_, _, err = runApp(context.Background(), "i2c", "detect", "--first=0x60", "--last=0x50")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "past the last one")

	_, _, err = runApp(context.Background(), "i2c", "detect", "--last=0x80")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `bad address "0x80"`)

	_, _, err = runApp(context.Background(), "i2c", "detect", "--bus=i2c9")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `no i2c bus named "i2c9", expected one of i2c0`)
}

func TestI2CGetSet(t *testing.T) {
	regs := map[byte]byte{0x75: 0x68, 0x76: 0x01}
	useI2C(t, inject.I2CRegisterMap(0x68, regs))

	out, _, err := runApp(context.Background(), "i2c", "get", "0x68", "0x75")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "0x75: 0x68\n")

	out, _, err = runApp(context.Background(), "i2c", "get", "--count=2", "--bus=/dev/i2c-3", "104", "0x75")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "0x75: 0x68\n0x76: 0x01\n")

	out, _, err = runApp(context.Background(), "i2c", "set", "0x68", "0x6b", "0x00", "0x01")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "Wrote 2 bytes to 0x68 from register 0x6b")
	test.That(t, regs[0x6b], test.ShouldEqual, 0)
	test.That(t, regs[0x6c], test.ShouldEqual, 1)

	_, _, err = runApp(context.Background(), "i2c", "get", "0x53", "0x00")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, syscall.ENXIO.Error())

	for _, args := range [][]string{
		{"i2c", "get", "0x68"},
		{"i2c", "get", "--count=0", "0x68", "0x75"},
		{"i2c", "get", "--count=2", "0x68", "0xff"},
		{"i2c", "set", "0x68", "0x6b"},
		{"i2c", "set", "0x68", "0x6b", "0x100"},
		{"i2c", "set", "0x68", "0x6b", "lots"},
	} {
		_, _, err := runApp(context.Background(), args...)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestSPIXfer(t *testing.T) {
	var cfg spi.Config
	prev := spi.DefaultOpener
	spi.DefaultOpener = inject.SPIOpener(inject.SPILoopback(), &cfg)
	t.Cleanup(func() { spi.DefaultOpener = prev })

	out, _, err := runApp(context.Background(), "spi", "xfer", "0xff", "0", "0x80")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "FF 00 80\n")
	test.That(t, cfg.Mode, test.ShouldEqual, spi.Mode0)
	test.That(t, cfg.MaxSpeedHz, test.ShouldEqual, uint32(500000))
	test.That(t, cfg.BitsPerWord, test.ShouldEqual, 8)

	_, _, err = runApp(context.Background(), "spi", "xfer", "--mode=3", "--speed=1000000", "0x12")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Mode, test.ShouldEqual, spi.Mode3)
	test.That(t, cfg.MaxSpeedHz, test.ShouldEqual, uint32(1000000))

	_, _, err = runApp(context.Background(), "spi", "xfer", "--mode=4", "0x12")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "mode 4")

	_, _, err = runApp(context.Background(), "spi", "xfer")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no bytes given")
}

func TestSerialList(t *testing.T) {
	prev := listSerialPorts
	t.Cleanup(func() { listSerialPorts = prev })

	listSerialPorts = func() ([]serial.Description, error) {
		return []serial.Description{
			{Type: serial.TypeUART, Path: "/dev/ttyS10"},
			{Type: serial.TypeArduino, Path: "/dev/ttyACM0", VID: "2341", PID: "0043", Product: "Uno"},
		}, nil
	}
	out, _, err := runApp(context.Background(), "serial", "list")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "/dev/ttyS10")
	test.That(t, out, test.ShouldContainSubstring, "/dev/ttyACM0")
	test.That(t, out, test.ShouldContainSubstring, "arduino")
	test.That(t, out, test.ShouldContainSubstring, "2341")

	listSerialPorts = func() ([]serial.Description, error) { return nil, nil }
	out, _, err = runApp(context.Background(), "serial", "list")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "No serial ports found\n")
}

func TestSerialXfer(t *testing.T) {
	var mode ser.Mode
	prev := serial.DefaultOpener
	t.Cleanup(func() { serial.DefaultOpener = prev })
	serial.DefaultOpener = inject.SerialOpener(inject.SerialLoopback(), &mode)

	out, errOut, err := runApp(context.Background(), "serial", "xfer", "1", "2", "0xfe")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "01 02 FE\n")
	test.That(t, errOut, test.ShouldBeEmpty)
	test.That(t, mode.BaudRate, test.ShouldEqual, 115200)

	out, errOut, err = runApp(context.Background(), "serial", "xfer", "--baud=9600", "--read=5", "--timeout=10ms", "1", "2", "3")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "01 02 03\n")
	test.That(t, errOut, test.ShouldContainSubstring, "Warning: only 3 of 5 bytes came back")
	test.That(t, mode.BaudRate, test.ShouldEqual, 9600)

	_, _, err = runApp(context.Background(), "serial", "xfer", "--port=uart9", "1")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `no serial port named "uart9"`)
}

func TestGPIOGetSet(t *testing.T) {
	level := inject.NewGPIOLevel(1)
	var (
		opened  []string
		outputs []bool
		offsets []uint32
		opts    []gpio.LineOptions
	)
	useGPIO(t, &inject.GPIOChip{
		OpenLineFunc: func(offset uint32, output bool, value byte, o gpio.LineOptions, consumer string) (gpio.LineConn, error) {
			offsets = append(offsets, offset)
			outputs = append(outputs, output)
			opts = append(opts, o)
			if output {
				test.That(t, level.SetValue(value), test.ShouldBeNil)
			}
			return level, nil
		},
		CloseFunc: func() error { return nil },
	}, &opened)

	out, _, err := runApp(context.Background(), "gpio", "get")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "1\n")

	out, _, err = runApp(context.Background(), "gpio", "set", "--chip=0", "--offset=7", "--active-low", "0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "Set /dev/gpiochip0:7 to 0\n")
	v, err := level.Value()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 0)

	out, _, err = runApp(context.Background(), "gpio", "set", "--hold=1ms", "1")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "Set /dev/gpiochip0:203 to 1\n")

	test.That(t, opened, test.ShouldResemble, []string{"/dev/gpiochip1", "/dev/gpiochip0", "/dev/gpiochip0"})
	test.That(t, offsets, test.ShouldResemble, []uint32{3, 7, 203})
	test.That(t, outputs, test.ShouldResemble, []bool{false, true, true})
	test.That(t, opts[1].ActiveLow, test.ShouldBeTrue)

	for _, args := range [][]string{
		{"gpio", "set", "2"},
		{"gpio", "set"},
		{"gpio", "set", "--chip=0", "1"},
		{"gpio", "get", "--line=relay"},
	} {
		_, _, err := runApp(context.Background(), args...)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestGPIOWatch(t *testing.T) {
	for _, tc := range []struct {
		name        string
		config      string
		wantFalling bool
	}{
		{"both edges", "", true},
		{"rising only", `{
			name: "test",
			digital_interrupts: [{name: "motion", chip: "/dev/gpiochip0", line: 203, edge: "rising"}],
		}`, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			line, src := inject.NewGPIOEdgeSource()
			var requested []gpio.Edge
			useGPIO(t, &inject.GPIOChip{
				OpenEventLineFunc: func(offset uint32, edge gpio.Edge, opts gpio.LineOptions, consumer string) (gpio.EventLineConn, error) {
					test.That(t, offset, test.ShouldEqual, 203)
					requested = append(requested, edge)
					return line, nil
				},
				CloseFunc: func() error { return nil },
			}, nil)

			args := []string{"gpio", "watch", "--duration=1m"}
			if tc.config != "" {
				args = append([]string{"--config", writeConfig(t, tc.config)}, args...)
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			type result struct {
				out string
				err error
			}
			done := make(chan result, 1)
			go func() {
				out, _, err := runApp(ctx, args...)
				done <- result{out, err}
			}()

			// Each send only completes once the edge two before it has been printed.
			now := time.Now()
			for _, rising := range []bool{true, false, true, true, true} {
				src <- gpio.RawEvent{Rising: rising, Time: now}
			}
			cancel()
			res := <-done

			test.That(t, res.err, test.ShouldBeNil)
			test.That(t, requested, test.ShouldResemble, []gpio.Edge{gpio.BothEdges})
			test.That(t, res.out, test.ShouldContainSubstring, "Watching motion (/dev/gpiochip0:203)")
			test.That(t, res.out, test.ShouldContainSubstring, "Rising  edge "+now.Local().Format(timestampLayout))
			if tc.wantFalling {
				test.That(t, res.out, test.ShouldContainSubstring, "Falling edge")
			} else {
				test.That(t, res.out, test.ShouldNotContainSubstring, "Falling edge")
			}
			test.That(t, strings.TrimSpace(res.out), test.ShouldEndWith, "edges")
		})
	}
}

func TestGPIOWatchTimesOut(t *testing.T) {
	useGPIO(t, &inject.GPIOChip{
		OpenEventLineFunc: func(uint32, gpio.Edge, gpio.LineOptions, string) (gpio.EventLineConn, error) {
			line, _ := inject.NewGPIOEdgeSource()
			return line, nil
		},
		CloseFunc: func() error { return nil },
	}, nil)

	out, _, err := runApp(context.Background(), "gpio", "watch", "--duration=10ms")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEndWith, "0 edges\n")

	out, _, err = runApp(context.Background(), "--log-level=warn", "gpio", "watch", "--duration=1ms")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEndWith, "0 edges\n")

	_, _, err = runApp(context.Background(), "--log-level=loud", "gpio", "watch")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown log level: "loud"`)

	_, _, err = runApp(context.Background(), "gpio", "watch", "--interrupt=door")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `no digital interrupt named "door"`)
}

// fakePWM lays out an exported pwmchip0/pwm0 under a temp dir and points the command at it.
func fakePWM(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	test.That(t, os.MkdirAll(filepath.Join(root, "pwmchip0", "pwm0"), 0o755), test.ShouldBeNil)
	for f, v := range map[string]string{
		"export": "", "unexport": "",
		"pwm0/period": "0", "pwm0/duty_cycle": "0", "pwm0/enable": "0", "pwm0/polarity": "normal",
	} {
		test.That(t, os.WriteFile(filepath.Join(root, "pwmchip0", f), []byte(v), 0o644), test.ShouldBeNil)
	}
	prev := openPWM
	openPWM = func(chip, channel int) (*pwm.Channel, error) {
		return pwm.OpenAt(root, chip, channel)
	}
	t.Cleanup(func() { openPWM = prev })
	return root
}

func readPWM(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "pwmchip0", name))
	test.That(t, err, test.ShouldBeNil)
	return strings.TrimSpace(string(data))
}

func TestPWMSet(t *testing.T) {
	root := fakePWM(t)

	out, _, err := runApp(context.Background(), "pwm", "set", "--frequency=1000", "--duty=0.25", "--polarity=inversed")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "pwm0 running at 1000 Hz with a 0.25 duty cycle\n")
	test.That(t, readPWM(t, root, "pwm0/period"), test.ShouldEqual, "1000000")
	test.That(t, readPWM(t, root, "pwm0/duty_cycle"), test.ShouldEqual, "250000")
	test.That(t, readPWM(t, root, "pwm0/polarity"), test.ShouldEqual, "inversed")
	test.That(t, readPWM(t, root, "pwm0/enable"), test.ShouldEqual, "1")
	test.That(t, readPWM(t, root, "unexport"), test.ShouldEqual, "")

	out, _, err = runApp(context.Background(), "pwm", "set", "--disable")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "Disabled pwm0\n")
	test.That(t, readPWM(t, root, "pwm0/duty_cycle"), test.ShouldEqual, "0")
	test.That(t, readPWM(t, root, "pwm0/enable"), test.ShouldEqual, "0")
	test.That(t, readPWM(t, root, "unexport"), test.ShouldEqual, "0")

	_, _, err = runApp(context.Background(), "pwm", "set", "--frequency=50", "--duty=0.5", "--hold=1ms")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readPWM(t, root, "pwm0/period"), test.ShouldEqual, "20000000")
	test.That(t, readPWM(t, root, "pwm0/duty_cycle"), test.ShouldEqual, "0")
	test.That(t, readPWM(t, root, "pwm0/enable"), test.ShouldEqual, "0")

	cfg := writeConfig(t, `{name: "test", pwms: [{name: "fan", chip: 0, channel: 0, frequency_hz: 25000}]}`)
	out, _, err = runApp(context.Background(), "--config", cfg, "pwm", "set", "--pwm=fan", "--duty=1")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "fan running at 25000 Hz with a 1 duty cycle\n")
	test.That(t, readPWM(t, root, "pwm0/period"), test.ShouldEqual, "40000")
	test.That(t, readPWM(t, root, "pwm0/duty_cycle"), test.ShouldEqual, "40000")

	for _, args := range [][]string{
		{"pwm", "set"},
		{"pwm", "set", "--frequency=1000", "--duty=1.5"},
		{"pwm", "set", "--frequency=1000", "--polarity=upside-down"},
		{"pwm", "set", "--pwm=pwm7", "--frequency=1000"},
	} {
		_, _, err := runApp(context.Background(), args...)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestSoftwarePWM(t *testing.T) {
	level := inject.NewGPIOLevel(0)
	var toggles int
	level.SetValueFunc = func(v byte) error {
		toggles++
		return nil
	}
	released := 0
	level.CloseFunc = func() error {
		released++
		return nil
	}
	var opened []string
	useGPIO(t, &inject.GPIOChip{
		OpenLineFunc: func(offset uint32, output bool, value byte, opts gpio.LineOptions, consumer string) (gpio.LineConn, error) {
			test.That(t, offset, test.ShouldEqual, 203)
			test.That(t, output, test.ShouldBeTrue)
			test.That(t, value, test.ShouldEqual, 0)
			return level, nil
		},
		CloseFunc: func() error { return nil },
	}, &opened)

	out, _, err := runApp(context.Background(), "pwm", "set", "--software=led", "--frequency=100", "--hold=30ms")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "led toggling at 100 Hz with a 0.5 duty cycle for 30ms\n")
	test.That(t, opened, test.ShouldResemble, []string{"/dev/gpiochip0"})
	test.That(t, toggles, test.ShouldBeGreaterThan, 1)
	test.That(t, released, test.ShouldEqual, 1)

	for _, args := range [][]string{
		{"pwm", "set", "--software=led", "--frequency=100"},
		{"pwm", "set", "--software=led", "--hold=10ms"},
		{"pwm", "set", "--software=relay", "--frequency=100", "--hold=10ms"},
	} {
		_, _, err := runApp(context.Background(), args...)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestConfigShow(t *testing.T) {
	out, _, err := runApp(context.Background(), "config", "show")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "nanopi-duo")
	test.That(t, out, test.ShouldContainSubstring, "/dev/spidev1.0")
	test.That(t, out, test.ShouldNotContainSubstring, "From ")

	t.Setenv("PERIPHCTL_TEST_BUS", "/dev/i2c-7")
	cfg := writeConfig(t, `{
		// comments are fine
		name: "custom",
		i2cs: [{name: "sensors", bus: "${PERIPHCTL_TEST_BUS}"}],
	}`)
	out, _, err = runApp(context.Background(), "-c", cfg, "config", "show")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "From "+cfg)
	test.That(t, out, test.ShouldContainSubstring, "custom")
	test.That(t, out, test.ShouldContainSubstring, "/dev/i2c-7")

	_, _, err = runApp(context.Background(), "-c", writeConfig(t, `{name: "bad", i2cs: [{name: "x"}]}`), "config", "show")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to validate board config")

	_, _, err = runApp(context.Background(), "-c", filepath.Join(t.TempDir(), "missing.json5"), "config", "show")
	test.That(t, err, test.ShouldNotBeNil)
}
