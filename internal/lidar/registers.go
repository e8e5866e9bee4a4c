// internal/lidar/registers.go
package lidar

// LIDAR-Lite v2 register map.
// These values are a wire contract with the sensor firmware and MUST NOT
// be configurable.

// ---- SHARED ADDRESS ----

// FactoryAddress is the party-line address every sensor answers to after
// power-up, before individual reassignment.
const FactoryAddress byte = 0x62

// ---- READ REGISTERS ----

const (
	// RegStatus holds the acquisition status; bit 0 is the busy flag.
	RegStatus byte = 0x01

	// RegSignalStrength holds the signal strength of the last reading.
	RegSignalStrength byte = 0x0e

	// RegError holds the last device error code.
	RegError byte = 0x40

	// RegMeasuredValue is the measured distance word (big-endian, cm).
	RegMeasuredValue byte = 0x8f

	// RegReadSerial is the two-byte unit serial number word.
	RegReadSerial byte = 0x96
)

// ---- WRITE REGISTERS ----

const (
	// RegControl starts acquisitions and applies the default preset.
	RegControl byte = 0x00

	// RegSerial1 and RegSerial2 unlock address reassignment: the unit's
	// serial number must be echoed back before a new address is accepted.
	RegSerial1 byte = 0x18
	RegSerial2 byte = 0x19

	// RegAddress receives the unit's new bus address.
	RegAddress byte = 0x1a

	// RegPartyLine enables or disables the shared factory address.
	RegPartyLine byte = 0x1e

	// RegVelocityScale sets the velocity measurement period.
	RegVelocityScale byte = 0x45

	// RegAcqConfig tunes acquisition count and detection thresholds.
	RegAcqConfig byte = 0x04

	// RegDetectThreshold tunes the detection decision criteria.
	RegDetectThreshold byte = 0x1c

	// RegOffset applies a distance offset to subsequent readings.
	RegOffset byte = 0x13
)

// ---- VALUES ----

const (
	// ValInitiate written to RegControl starts an acquisition with preamp
	// enabled and DC stabilization.
	ValInitiate byte = 0x04

	// ValPartyLineOn / ValPartyLineOff toggle the factory address.
	ValPartyLineOn  byte = 0x00
	ValPartyLineOff byte = 0x08

	// ValBusyMask masks the busy flag in RegStatus; 0 signals completion.
	ValBusyMask byte = 0x01
)

// Velocity scaling values for RegVelocityScale. The register takes the raw
// measurement period, not an index: note the x2 between 100ms and 0xC8.
const (
	VelocityPeriod100ms byte = 0xC8 // 0.10 m/s resolution (device default)
	VelocityPeriod40ms  byte = 0x50 // 0.25 m/s
	VelocityPeriod20ms  byte = 0x28 // 0.50 m/s
	VelocityPeriod10ms  byte = 0x14 // 1.00 m/s
)
