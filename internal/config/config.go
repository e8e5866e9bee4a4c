// internal/config/config.go
package config

type Config struct {
	LidarBank LidarBankConfig `yaml:"lidar_bank"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	HTTP      HTTPConfig      `yaml:"http"`
}

// ---- BANK ----

type LidarBankConfig struct {
	TickIntervalMs   int              `yaml:"tick_interval_ms"`
	FaultThreshold   int              `yaml:"fault_threshold"`
	PowerOffSettleMs int              `yaml:"power_off_settle_ms"`
	PowerOnSettleMs  int              `yaml:"power_on_settle_ms"`
	ForceOffsetReset *bool            `yaml:"force_offset_reset"`
	Validation       ValidationConfig `yaml:"validation"`
	Bus              BusConfig        `yaml:"bus"`
	Power            PowerConfig      `yaml:"power"`
	Sensors          []SensorConfig   `yaml:"sensors"`
}

// ---- READING VALIDATION ----

// ValidationConfig bounds plausible readings. These are sensor
// calibration values, not protocol constants.
type ValidationConfig struct {
	MaxJumpCm int `yaml:"max_jump_cm"`
	MinCm     int `yaml:"min_cm"`
	MaxCm     int `yaml:"max_cm"`
}

// ---- BUS ----

type BusConfig struct {
	Device    string `yaml:"device"`
	Baud      int    `yaml:"baud"`
	SlaveID   uint8  `yaml:"slave_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- POWER ----

// PowerConfig selects the power-enable driver:
//   gpio   - Raspberry Pi GPIO lines (sensor power_pin = BCM number)
//   bridge - bridge power-rail coils (sensor power_pin = coil channel)
//   none   - rails are hardwired on
type PowerConfig struct {
	Driver string `yaml:"driver"`
}

// ---- SENSORS ----

type SensorConfig struct {
	Slot     int    `yaml:"slot"`
	Address  uint8  `yaml:"address"`
	Preset   string `yaml:"preset"`
	PowerPin int    `yaml:"power_pin"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// ---- HTTP ----

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}
