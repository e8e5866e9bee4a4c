// internal/config/normalize.go
package config

// Defaults applied by Normalize. Tuning defaults mirror the original
// firmware; transport defaults mirror the bridge hardware.
const (
	defaultTickIntervalMs   = 5
	defaultFaultThreshold   = 10
	defaultPowerOffSettleMs = 20
	defaultPowerOnSettleMs  = 20
	defaultMaxJumpCm        = 100
	defaultMinCm            = 4
	defaultMaxCm            = 1000
	defaultBaud             = 115200
	defaultBusTimeoutMs     = 200
	defaultMQTTPort         = 1883
	defaultHTTPListen       = ":9740"
)

// Normalize applies post-validation defaulting.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	bank := &cfg.LidarBank

	if bank.TickIntervalMs <= 0 {
		bank.TickIntervalMs = defaultTickIntervalMs
	}
	if bank.FaultThreshold <= 0 {
		bank.FaultThreshold = defaultFaultThreshold
	}
	if bank.PowerOffSettleMs <= 0 {
		bank.PowerOffSettleMs = defaultPowerOffSettleMs
	}
	if bank.PowerOnSettleMs <= 0 {
		bank.PowerOnSettleMs = defaultPowerOnSettleMs
	}
	if bank.ForceOffsetReset == nil {
		// On by default: works around the v2 I2C offset drift.
		on := true
		bank.ForceOffsetReset = &on
	}

	if bank.Validation.MaxJumpCm == 0 {
		bank.Validation.MaxJumpCm = defaultMaxJumpCm
	}
	if bank.Validation.MinCm == 0 {
		bank.Validation.MinCm = defaultMinCm
	}
	if bank.Validation.MaxCm == 0 {
		bank.Validation.MaxCm = defaultMaxCm
	}

	if bank.Bus.Baud <= 0 {
		bank.Bus.Baud = defaultBaud
	}
	if bank.Bus.TimeoutMs <= 0 {
		bank.Bus.TimeoutMs = defaultBusTimeoutMs
	}

	if bank.Power.Driver == "" {
		bank.Power.Driver = "none"
	}

	if cfg.MQTT.Enabled && cfg.MQTT.Port <= 0 {
		cfg.MQTT.Port = defaultMQTTPort
	}
	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = defaultHTTPListen
	}
}
