package config

// Default describes a NanoPi Duo with the wiring the demos expect: an MPU-6050 and ADXL345 on the
// first I2C bus, SPI 1 with MISO jumpered to MOSI, UART 1 looped back, the on-board button, an LED
// on IOG11 and an LED on PWM 0.
func Default() *Board {
	return &Board{
		Name:    "nanopi-duo",
		I2Cs:    []I2CConfig{{Name: "i2c0", Bus: "/dev/i2c-0"}},
		SPIs:    []SPIConfig{{Name: "spi1", Device: "/dev/spidev1.0", Mode: 0, MaxSpeedHz: 500000}},
		Serials: []SerialConfig{{Name: "uart1", Device: "/dev/ttyS10", BaudRate: 115200}},
		GPIOs: []GPIOConfig{
			{Name: "led", Chip: "/dev/gpiochip0", Line: 203, Output: true},
			{Name: "button", Chip: "/dev/gpiochip1", Line: 3},
		},
		PWMs: []PWMConfig{{Name: "pwm0", Chip: 0, Channel: 0}},
		DigitalInterrupts: []DigitalInterruptConfig{
			{Name: "motion", Chip: "/dev/gpiochip0", Line: 203, Edge: "both"},
		},
		Sensors: []Sensor{
			{Name: "imu", Model: ModelMPU6050, Attributes: AttributeMap{"i2c_bus": "i2c0"}},
			{Name: "accel", Model: ModelADXL345, Attributes: AttributeMap{"i2c_bus": "i2c0"}},
		},
	}
}
