package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// String prints out a table of every peripheral on the board, with columns of kind, name, device
// and settings.
func (config *Board) String() string {
	t := table.NewWriter()
	t.SetTitle("%s", config.Name)
	t.AppendHeader(table.Row{"#", "Kind", "Name", "Device", "Settings"})
	i := 0
	row := func(kind, name, device, settings string) {
		i++
		t.AppendRow(table.Row{fmt.Sprintf("%d", i), kind, name, device, settings})
	}
	for _, c := range config.I2Cs {
		row("i2c", c.Name, c.Bus, "")
	}
	for _, c := range config.SPIs {
		spiCfg := c.SPI()
		row("spi", c.Name, c.Device, fmt.Sprintf("mode %d, %d Hz, %s, %d bits",
			spiCfg.Mode, spiCfg.MaxSpeedHz, spiCfg.BitOrder, spiCfg.BitsPerWord))
	}
	for _, c := range config.Serials {
		row("serial", c.Name, c.Device, fmt.Sprintf("%d baud", c.BaudRate))
	}
	for _, c := range config.GPIOs {
		direction := "input"
		if c.Output {
			direction = "output"
		}
		if c.ActiveLow {
			direction += ", active low"
		}
		row("gpio", c.Name, fmt.Sprintf("%s:%d", c.Chip, c.Line), direction)
	}
	for _, c := range config.PWMs {
		settings := ""
		if c.FrequencyHz > 0 {
			settings = fmt.Sprintf("%v Hz", c.FrequencyHz)
		}
		row("pwm", c.Name, fmt.Sprintf("pwmchip%d/pwm%d", c.Chip, c.Channel), settings)
	}
	for _, c := range config.DigitalInterrupts {
		edge := c.Edge
		if edge == "" {
			edge = "both"
		}
		row("interrupt", c.Name, fmt.Sprintf("%s:%d", c.Chip, c.Line), edge+" edges")
	}
	for _, c := range config.Sensors {
		row("sensor", c.Name, c.Model, formatAttributes(c.Attributes))
	}
	return t.Render()
}

func formatAttributes(attrs AttributeMap) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, attrs[k]))
	}
	return strings.Join(parts, ", ")
}
