// Package config describes the peripherals wired to a board: named I2C buses, SPI devices,
// serial ports, GPIO lines, PWM channels, digital interrupts, and the sensors on those buses.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.viam.com/utils"

	"go.viam.com/periphery/components/gpio"
	"go.viam.com/periphery/components/spi"
)

// I2CConfig enumerates a specific, shareable I2C bus.
type I2CConfig struct {
	Name string `json:"name"`
	Bus  string `json:"bus"`
}

// Validate ensures all parts of the config are valid.
func (config *I2CConfig) Validate(path string) error {
	if config.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if config.Bus == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "bus")
	}
	return nil
}

// SPIConfig enumerates a SPI device and how to talk to it.
type SPIConfig struct {
	Name        string `json:"name"`
	Device      string `json:"device"`
	Mode        uint8  `json:"mode"`
	MaxSpeedHz  uint32 `json:"max_speed_hz"`
	BitOrder    string `json:"bit_order,omitempty"` // "msb" (default) or "lsb"
	BitsPerWord uint8  `json:"bits_per_word,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (config *SPIConfig) Validate(path string) error {
	if config.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if config.Device == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "device")
	}
	if config.Mode > 3 {
		return utils.NewConfigValidationError(path, errors.Errorf("mode %d must be between 0 and 3", config.Mode))
	}
	if config.MaxSpeedHz == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "max_speed_hz")
	}
	if config.BitOrder != "" && config.BitOrder != "msb" && config.BitOrder != "lsb" {
		return utils.NewConfigValidationError(path, errors.Errorf("bit_order must be msb or lsb, not %q", config.BitOrder))
	}
	return nil
}

// SPI returns the device configuration to open with.
func (config *SPIConfig) SPI() spi.Config {
	cfg := spi.Config{
		Mode:        spi.Mode(config.Mode),
		MaxSpeedHz:  config.MaxSpeedHz,
		BitOrder:    spi.MSBFirst,
		BitsPerWord: config.BitsPerWord,
	}
	if config.BitOrder == "lsb" {
		cfg.BitOrder = spi.LSBFirst
	}
	if cfg.BitsPerWord == 0 {
		cfg.BitsPerWord = 8
	}
	return cfg
}

// SerialConfig enumerates a serial port.
type SerialConfig struct {
	Name     string `json:"name"`
	Device   string `json:"device"`
	BaudRate int    `json:"baud_rate"`
}

// Validate ensures all parts of the config are valid.
func (config *SerialConfig) Validate(path string) error {
	if config.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if config.Device == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "device")
	}
	if config.BaudRate <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "baud_rate")
	}
	return nil
}

// GPIOConfig names a line of a GPIO chip.
type GPIOConfig struct {
	Name      string `json:"name"`
	Chip      string `json:"chip"`
	Line      int    `json:"line"`
	Output    bool   `json:"output,omitempty"`
	ActiveLow bool   `json:"active_low,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (config *GPIOConfig) Validate(path string) error {
	if config.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if config.Chip == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "chip")
	}
	if config.Line < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("line %d must not be negative", config.Line))
	}
	return nil
}

// PWMConfig names a sysfs PWM channel.
type PWMConfig struct {
	Name        string  `json:"name"`
	Chip        int     `json:"chip"`
	Channel     int     `json:"channel"`
	FrequencyHz float64 `json:"frequency_hz,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (config *PWMConfig) Validate(path string) error {
	if config.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if config.Chip < 0 || config.Channel < 0 {
		return utils.NewConfigValidationError(path, errors.New("chip and channel must not be negative"))
	}
	if config.FrequencyHz < 0 {
		return utils.NewConfigValidationError(path, errors.New("frequency_hz must not be negative"))
	}
	return nil
}

// DigitalInterruptConfig describes the configuration of digital interrupt for a board.
type DigitalInterruptConfig struct {
	Name string `json:"name"`
	Chip string `json:"chip"`
	Line int    `json:"line"`
	Edge string `json:"edge,omitempty"` // "rising", "falling" or "both" (default)
}

// Validate ensures all parts of the config are valid.
func (config *DigitalInterruptConfig) Validate(path string) error {
	if config.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if config.Chip == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "chip")
	}
	if _, err := ParseEdge(config.Edge); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// ParseEdge converts an edge name to the edges to watch. Empty means both.
func ParseEdge(name string) (gpio.Edge, error) {
	switch name {
	case "rising":
		return gpio.RisingEdge, nil
	case "falling":
		return gpio.FallingEdge, nil
	case "both", "":
		return gpio.BothEdges, nil
	}
	return 0, errors.Errorf("unknown edge %q", name)
}

// Board is the whole description of a board.
type Board struct {
	ConfigFilePath string `json:"-"`

	Name              string                   `json:"name"`
	I2Cs              []I2CConfig              `json:"i2cs,omitempty"`
	SPIs              []SPIConfig              `json:"spis,omitempty"`
	Serials           []SerialConfig           `json:"serials,omitempty"`
	GPIOs             []GPIOConfig             `json:"gpios,omitempty"`
	PWMs              []PWMConfig              `json:"pwms,omitempty"`
	DigitalInterrupts []DigitalInterruptConfig `json:"digital_interrupts,omitempty"`
	Sensors           []Sensor                 `json:"sensors,omitempty"`
}

type validator interface {
	Validate(path string) error
}

func validateAll[T any, PT interface {
	*T
	validator
}](path, field string, items []T) error {
	for idx := range items {
		itemPath := fmt.Sprintf("%s.%s.%d", path, field, idx)
		if err := PT(&items[idx]).Validate(itemPath); err != nil {
			return err
		}
	}
	return nil
}

// Validate ensures all parts of the config are valid, and that names are unique across every kind
// of peripheral so they can be addressed by name alone.
func (config *Board) Validate(path string) error {
	if config.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if err := validateAll(path, "i2cs", config.I2Cs); err != nil {
		return err
	}
	if err := validateAll(path, "spis", config.SPIs); err != nil {
		return err
	}
	if err := validateAll(path, "serials", config.Serials); err != nil {
		return err
	}
	if err := validateAll(path, "gpios", config.GPIOs); err != nil {
		return err
	}
	if err := validateAll(path, "pwms", config.PWMs); err != nil {
		return err
	}
	if err := validateAll(path, "digital_interrupts", config.DigitalInterrupts); err != nil {
		return err
	}
	for idx := range config.Sensors {
		sensorPath := fmt.Sprintf("%s.sensors.%d", path, idx)
		deps, err := config.Sensors[idx].Validate(sensorPath)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if _, ok := config.I2CByName(dep); !ok {
				return utils.NewConfigValidationError(sensorPath, errors.Errorf("unknown i2c bus %q", dep))
			}
		}
	}

	names := config.names()
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("name %q is not unique", dups[0]))
	}
	return nil
}

func (config *Board) names() []string {
	var names []string
	names = append(names, lo.Map(config.I2Cs, func(c I2CConfig, _ int) string { return c.Name })...)
	names = append(names, lo.Map(config.SPIs, func(c SPIConfig, _ int) string { return c.Name })...)
	names = append(names, lo.Map(config.Serials, func(c SerialConfig, _ int) string { return c.Name })...)
	names = append(names, lo.Map(config.GPIOs, func(c GPIOConfig, _ int) string { return c.Name })...)
	names = append(names, lo.Map(config.PWMs, func(c PWMConfig, _ int) string { return c.Name })...)
	names = append(names, lo.Map(config.DigitalInterrupts, func(c DigitalInterruptConfig, _ int) string { return c.Name })...)
	names = append(names, lo.Map(config.Sensors, func(c Sensor, _ int) string { return c.Name })...)
	return names
}

// I2CByName returns the I2C bus with the given name.
func (config *Board) I2CByName(name string) (I2CConfig, bool) {
	return lo.Find(config.I2Cs, func(c I2CConfig) bool { return c.Name == name })
}

// SPIByName returns the SPI device with the given name.
func (config *Board) SPIByName(name string) (SPIConfig, bool) {
	return lo.Find(config.SPIs, func(c SPIConfig) bool { return c.Name == name })
}

// SerialByName returns the serial port with the given name.
func (config *Board) SerialByName(name string) (SerialConfig, bool) {
	return lo.Find(config.Serials, func(c SerialConfig) bool { return c.Name == name })
}

// GPIOByName returns the GPIO line with the given name.
func (config *Board) GPIOByName(name string) (GPIOConfig, bool) {
	return lo.Find(config.GPIOs, func(c GPIOConfig) bool { return c.Name == name })
}

// PWMByName returns the PWM channel with the given name.
func (config *Board) PWMByName(name string) (PWMConfig, bool) {
	return lo.Find(config.PWMs, func(c PWMConfig) bool { return c.Name == name })
}

// DigitalInterruptByName returns the digital interrupt with the given name.
func (config *Board) DigitalInterruptByName(name string) (DigitalInterruptConfig, bool) {
	return lo.Find(config.DigitalInterrupts, func(c DigitalInterruptConfig) bool { return c.Name == name })
}

// SensorByName returns the sensor with the given name.
func (config *Board) SensorByName(name string) (Sensor, bool) {
	return lo.Find(config.Sensors, func(c Sensor) bool { return c.Name == name })
}
