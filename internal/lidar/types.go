// internal/lidar/types.go
package lidar

import (
	"errors"
	"time"
)

// State is a sensor's lifecycle state. It is owned exclusively by the
// Controller: all transitions happen inside SpinOnce (or through an
// explicit SetState from outside the loop).
type State uint8

const (
	// StatePoweringDown: power rail is off, waiting for the power-off
	// settle delay before the unit may rejoin the reset queue.
	StatePoweringDown State = iota

	// StateAwaitingReset: powered off, waiting for the reset sequencer
	// to become free.
	StateAwaitingReset

	// StateResetInFlight: powered on at the factory address, waiting for
	// the bus-settle delay before address reassignment. At most one
	// sensor bank-wide may be in this state with power enabled.
	StateResetInFlight

	// StateNeedsConfigure: individually addressed, acquisition preset not
	// yet applied.
	StateNeedsConfigure

	// StateAcquisitionReady: configured, ready to start an acquisition.
	StateAcquisitionReady

	// StateAcquisitionPending: acquisition command issued, polling the
	// busy flag.
	StateAcquisitionPending

	// StateAcquisitionComplete: distance stored, strength and
	// notification pending.
	StateAcquisitionComplete
)

// String returns the state name for logs and the HTTP API.
func (s State) String() string {
	switch s {
	case StatePoweringDown:
		return "powering_down"
	case StateAwaitingReset:
		return "awaiting_reset"
	case StateResetInFlight:
		return "reset_in_flight"
	case StateNeedsConfigure:
		return "needs_configure"
	case StateAcquisitionReady:
		return "acquisition_ready"
	case StateAcquisitionPending:
		return "acquisition_pending"
	case StateAcquisitionComplete:
		return "acquisition_complete"
	default:
		return "unknown"
	}
}

// ParseState maps a state name back to its State. Used by the HTTP API
// for external forced transitions.
func ParseState(s string) (State, bool) {
	for st := StatePoweringDown; st <= StateAcquisitionComplete; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}

// Preset selects one of the four acquisition configurations. Each preset
// is exactly one register/value write.
type Preset uint8

const (
	// PresetDefault is the sensor's power-on behavior.
	PresetDefault Preset = 0

	// PresetFast reduces the acquisition count to 1/3: faster reads,
	// slightly noisier values.
	PresetFast Preset = 1

	// PresetLowNoise pulls the decision criteria higher above the noise:
	// fewer false detections, reduced sensitivity.
	PresetLowNoise Preset = 2

	// PresetHighSensitivity pulls the decision criteria into the noise:
	// more false detections, increased sensitivity.
	PresetHighSensitivity Preset = 3
)

// presetWrites maps each preset to its register/value pair. A preset
// outside this table is a no-op: no write, no error. That mirrors the
// device vendor's reference behavior and keeps SpinOnce total.
var presetWrites = map[Preset]struct{ reg, val byte }{
	PresetDefault:         {RegControl, 0x00},
	PresetFast:            {RegAcqConfig, 0x00},
	PresetLowNoise:        {RegDetectThreshold, 0x20},
	PresetHighSensitivity: {RegDetectThreshold, 0x60},
}

// Reading is a completed acquisition, delivered to observers.
type Reading struct {
	Slot     int       `json:"slot"`
	Address  byte      `json:"address"`
	Distance int       `json:"distance_cm"`
	Last     int       `json:"last_distance_cm"`
	Strength byte      `json:"strength"`
	Suspect  bool      `json:"suspect"`
	At       time.Time `json:"at"`
}

// ReadingObserver consumes completed acquisitions. Called from the tick
// loop: implementations must not block.
type ReadingObserver interface {
	ObserveReading(r Reading)
}

// TransitionObserver is an optional hook invoked on every state change,
// keeping diagnostics out of the control logic.
type TransitionObserver interface {
	ObserveTransition(slot int, from, to State)
}

// Clock abstracts time for deadline checks. The controller never reads
// raw time, so timed transitions are testable without sleeping.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock is the production Clock.
var SystemClock Clock = realClock{}

// Address reassignment failure taxonomy. Each step of ChangeAddress is
// tried once; the caller recovers through the fault/reset cycle, so these
// are result codes, not retryable conditions.
var (
	ErrDeviceUnresponsive = errors.New("lidar: no device answering the factory address")
	ErrAddressConflict    = errors.New("lidar: target address already occupied on the bus")
	ErrSerialRead         = errors.New("lidar: reading unit serial number failed")
	ErrSerialWriteByte1   = errors.New("lidar: writing serial number byte 1 failed")
	ErrSerialWriteByte2   = errors.New("lidar: writing serial number byte 2 failed")
	ErrAddressWrite       = errors.New("lidar: writing unit address failed")
	ErrPartyLineDisable   = errors.New("lidar: disabling the party line failed")
)

// ErrOutOfCapacity is returned by Add for slots past the fixed capacity.
// This is the only condition surfaced immediately: silent truncation
// would corrupt the slot invariant.
var ErrOutOfCapacity = errors.New("lidar: sensor bank capacity exceeded")
