// internal/lidar/sensor.go
package lidar

import "time"

// PowerPin controls one sensor's power-enable line. Implementations live
// in internal/hw (GPIO, bridge coil, no-op).
type PowerPin interface {
	On()
	Off()
}

// Sensor is one registered unit. The controller owns its state and fault
// counter; callers construct it once with the target address and power
// line and never touch it again.
type Sensor struct {
	// address is the unit's bus address: the target address once
	// reassignment has completed, mutable only through ChangeAddress.
	address byte

	state State

	// distance and lastDistance are the current and prior validated
	// readings in centimeters. Out-of-range values are written through
	// anyway; suspicion is signaled via the fault counter only.
	distance     int
	lastDistance int

	strength byte

	// faultCount tallies consecutive bus failures. Cleared on forced
	// reset.
	faultCount int

	// deadline is the armed settle timer. Zero means not armed.
	deadline time.Time

	preset Preset
	power  PowerPin
}

// NewSensor creates a unit targeting the given bus address with the given
// acquisition preset.
func NewSensor(address byte, preset Preset, power PowerPin) *Sensor {
	if power == nil {
		power = noopPin{}
	}
	return &Sensor{
		address: address,
		preset:  preset,
		power:   power,
	}
}

// Address returns the unit's target bus address.
func (s *Sensor) Address() byte { return s.address }

// Distance returns the most recent stored reading in centimeters.
func (s *Sensor) Distance() int { return s.distance }

// LastDistance returns the prior stored reading.
func (s *Sensor) LastDistance() int { return s.lastDistance }

// Strength returns the last signal-strength reading.
func (s *Sensor) Strength() byte { return s.strength }

// FaultCount returns the consecutive-failure tally.
func (s *Sensor) FaultCount() int { return s.faultCount }

// State returns the unit's lifecycle state.
func (s *Sensor) State() State { return s.state }

// Preset returns the unit's acquisition preset.
func (s *Sensor) Preset() Preset { return s.preset }

// armTimer schedules a settle deadline.
func (s *Sensor) armTimer(now time.Time, settle time.Duration) {
	s.deadline = now.Add(settle)
}

// timerElapsed reports whether the armed deadline has passed.
func (s *Sensor) timerElapsed(now time.Time) bool {
	return !now.Before(s.deadline)
}

type noopPin struct{}

func (noopPin) On()  {}
func (noopPin) Off() {}
