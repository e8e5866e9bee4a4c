// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/tamzrod/lidar-bank/internal/lidar"
)

// presetNames maps config preset names to the acquisition presets.
var presetNames = map[string]lidar.Preset{
	"default":          lidar.PresetDefault,
	"fast":             lidar.PresetFast,
	"low_noise":        lidar.PresetLowNoise,
	"high_sensitivity": lidar.PresetHighSensitivity,
}

// PresetByName resolves a config preset name. The empty name is the
// bank default (low_noise, as the original firmware defaulted).
func PresetByName(name string) (lidar.Preset, bool) {
	if name == "" {
		return lidar.PresetLowNoise, true
	}
	p, ok := presetNames[name]
	return p, ok
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	bank := &cfg.LidarBank

	// ------------------------------------------------------------
	// BUS
	// ------------------------------------------------------------

	if bank.Bus.Device == "" {
		return fmt.Errorf("config: bus.device is required")
	}

	// ------------------------------------------------------------
	// POWER DRIVER
	// ------------------------------------------------------------

	switch bank.Power.Driver {
	case "", "gpio", "bridge", "none":
	default:
		return fmt.Errorf("config: unknown power driver %q", bank.Power.Driver)
	}

	// ------------------------------------------------------------
	// SENSOR SLOTS AND ADDRESSES
	// ------------------------------------------------------------

	if len(bank.Sensors) == 0 {
		return fmt.Errorf("config: at least one sensor is required")
	}
	if len(bank.Sensors) > lidar.Capacity {
		return fmt.Errorf("config: %d sensors configured, capacity is %d",
			len(bank.Sensors), lidar.Capacity)
	}

	slotOwner := make(map[int]bool)
	addrOwner := make(map[uint8]int)

	for _, s := range bank.Sensors {
		if s.Slot < 0 || s.Slot >= lidar.Capacity {
			return fmt.Errorf("config: sensor slot %d out of range 0..%d",
				s.Slot, lidar.Capacity-1)
		}
		if slotOwner[s.Slot] {
			return fmt.Errorf("config: sensor slot %d declared twice", s.Slot)
		}
		slotOwner[s.Slot] = true

		if s.Address == 0 {
			return fmt.Errorf("config: sensor slot %d: address is required", s.Slot)
		}
		if s.Address == lidar.FactoryAddress {
			return fmt.Errorf(
				"config: sensor slot %d: address 0x%02x is the shared factory address",
				s.Slot, s.Address)
		}
		if prev, taken := addrOwner[s.Address]; taken {
			return fmt.Errorf(
				"config: address 0x%02x assigned to both slot %d and slot %d",
				s.Address, prev, s.Slot)
		}
		addrOwner[s.Address] = s.Slot

		if _, ok := PresetByName(s.Preset); !ok {
			return fmt.Errorf("config: sensor slot %d: unknown preset %q",
				s.Slot, s.Preset)
		}
	}

	// ------------------------------------------------------------
	// READING VALIDATION BOUNDS
	// ------------------------------------------------------------

	v := bank.Validation
	if v.MinCm < 0 || v.MaxJumpCm < 0 {
		return fmt.Errorf("config: validation bounds must be non-negative")
	}
	if v.MaxCm != 0 && v.MaxCm <= v.MinCm {
		return fmt.Errorf("config: validation.max_cm must exceed validation.min_cm")
	}

	// ------------------------------------------------------------
	// MQTT
	// ------------------------------------------------------------

	if cfg.MQTT.Enabled {
		if cfg.MQTT.Host == "" {
			return fmt.Errorf("config: mqtt.host is required when mqtt is enabled")
		}
		if cfg.MQTT.Topic == "" {
			return fmt.Errorf("config: mqtt.topic is required when mqtt is enabled")
		}
	}

	return nil
}
