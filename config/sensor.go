package config

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/periphery/components/movementsensor/adxl345"
	"go.viam.com/periphery/components/movementsensor/mpu6050"
)

// AttributeMap is a model specific set of attributes, decoded into the model's own config type.
type AttributeMap map[string]interface{}

// Has returns whether the key is present.
func (am AttributeMap) Has(key string) bool {
	_, has := am[key]
	return has
}

// DependencyValidator validates a model config and returns the names of the buses it uses.
type DependencyValidator interface {
	Validate(path string) ([]string, error)
}

// Sensor is a sensor attached to one of the board's buses.
type Sensor struct {
	Name       string       `json:"name"`
	Model      string       `json:"model"`
	Attributes AttributeMap `json:"attributes,omitempty"`

	ConvertedAttributes DependencyValidator `json:"-"`
}

// Models.
const (
	ModelMPU6050 = "mpu6050"
	ModelADXL345 = "adxl345"
)

var sensorModels = map[string]func() DependencyValidator{
	ModelMPU6050: func() DependencyValidator { return &MPU6050Config{} },
	ModelADXL345: func() DependencyValidator { return &ADXL345Config{} },
}

// Validate converts the attributes for the model and validates them, returning the buses the
// sensor depends on.
func (config *Sensor) Validate(path string) ([]string, error) {
	if config.Name == "" {
		return nil, utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if config.Model == "" {
		return nil, utils.NewConfigValidationFieldRequiredError(path, "model")
	}
	newAttrs, ok := sensorModels[config.Model]
	if !ok {
		return nil, utils.NewConfigValidationError(path, errors.Errorf("unknown sensor model %q", config.Model))
	}
	attrs := newAttrs()
	if err := TransformAttributeMapToStruct(attrs, config.Attributes); err != nil {
		return nil, utils.NewConfigValidationError(path, err)
	}
	deps, err := attrs.Validate(path + ".attributes")
	if err != nil {
		return nil, err
	}
	config.ConvertedAttributes = attrs
	return deps, nil
}

// TransformAttributeMapToStruct decodes attributes into to, which must be a pointer to a struct
// with json tags. Unknown attributes are an error.
func TransformAttributeMapToStruct(to interface{}, attributes AttributeMap) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           to,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(map[string]interface{}(attributes))
}

// AttributesAs returns the converted attributes of a validated sensor config.
func AttributesAs[T DependencyValidator](config Sensor) (T, error) {
	attrs, ok := config.ConvertedAttributes.(T)
	if !ok {
		return attrs, errors.Errorf("sensor %q: expected %T attributes but got %T", config.Name, attrs, config.ConvertedAttributes)
	}
	return attrs, nil
}

// MPU6050Config is used to configure the attributes of an MPU-6050.
type MPU6050Config struct {
	I2CBus                 string `json:"i2c_bus"`
	UseAlternateI2CAddress bool   `json:"use_alt_i2c_address,omitempty"`
}

// Validate ensures all parts of the config are valid, and then returns the list of things we
// depend on.
func (cfg *MPU6050Config) Validate(path string) ([]string, error) {
	if cfg.I2CBus == "" {
		return nil, utils.NewConfigValidationFieldRequiredError(path, "i2c_bus")
	}
	return []string{cfg.I2CBus}, nil
}

// Address returns the I2C address selected by the AD0 pin.
func (cfg *MPU6050Config) Address() uint16 {
	if cfg.UseAlternateI2CAddress {
		return mpu6050.AlternateAddress
	}
	return mpu6050.DefaultAddress
}

// ADXL345Config is used to configure the attributes of an ADXL345.
type ADXL345Config struct {
	I2CBus                 string  `json:"i2c_bus"`
	UseAlternateI2CAddress bool    `json:"use_alt_i2c_address,omitempty"`
	GRange                 int     `json:"g_range,omitempty"`
	DataRateHz             float64 `json:"data_rate_hz,omitempty"`
}

var adxl345Ranges = map[int]adxl345.Range{
	2:  adxl345.Range2G,
	4:  adxl345.Range4G,
	8:  adxl345.Range8G,
	16: adxl345.Range16G,
}

// Validate ensures all parts of the config are valid, and then returns the list of things we
// depend on.
func (cfg *ADXL345Config) Validate(path string) ([]string, error) {
	if cfg.I2CBus == "" {
		return nil, utils.NewConfigValidationFieldRequiredError(path, "i2c_bus")
	}
	if _, ok := adxl345Ranges[cfg.GRange]; cfg.GRange != 0 && !ok {
		return nil, utils.NewConfigValidationError(path, errors.Errorf("g_range %d must be 2, 4, 8 or 16", cfg.GRange))
	}
	if _, err := cfg.DataRate(); err != nil {
		return nil, utils.NewConfigValidationError(path, err)
	}
	return []string{cfg.I2CBus}, nil
}

// Address returns the I2C address selected by the ALT ADDRESS pin.
func (cfg *ADXL345Config) Address() uint16 {
	if cfg.UseAlternateI2CAddress {
		return adxl345.AlternateAddress
	}
	return adxl345.DefaultAddress
}

// Range returns the configured range, ±2g by default.
func (cfg *ADXL345Config) Range() adxl345.Range {
	return adxl345Ranges[cfg.GRange]
}

// DataRate returns the output data rate code for DataRateHz, 100 Hz by default.
func (cfg *ADXL345Config) DataRate() (adxl345.DataRate, error) {
	if cfg.DataRateHz == 0 {
		return adxl345.Rate100Hz, nil
	}
	for rate := adxl345.DataRate(0); rate <= adxl345.Rate3200Hz; rate++ {
		if rate.Hz() == cfg.DataRateHz {
			return rate, nil
		}
	}
	return 0, errors.Errorf("unsupported data_rate_hz %v", cfg.DataRateHz)
}
