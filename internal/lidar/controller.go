// internal/lidar/controller.go
package lidar

import (
	"fmt"
	"sync"
	"time"
)

// Capacity is the fixed number of sensor slots. The bank never grows.
const Capacity = 8

// Transactor abstracts the bus the controller drives. Every operation is
// synchronous and bounded by the transport's own timeout; the controller
// treats any error uniformly as "no acknowledgment" and never
// distinguishes timeout from NACK.
type Transactor interface {
	WriteRegister(addr, reg, value byte) error
	ReadByte(addr, reg byte) (byte, error)
	ReadWord(addr, reg byte) (uint16, error)
	IsOnline(addr byte) bool
}

// Config is the controller's tuning. The validation bounds are sensor
// calibration, not physical law: they are configuration on purpose.
type Config struct {
	// FaultThreshold is the consecutive-failure count above which a unit
	// is forced through a full reset cycle.
	FaultThreshold int

	// PowerOffSettle is the dwell after cutting power before the unit
	// rejoins the reset queue.
	PowerOffSettle time.Duration

	// PowerOnSettle is the bus-settle dwell after power-up before the
	// unit is reassigned off the factory address.
	PowerOnSettle time.Duration

	// MaxJump flags a reading whose delta from the previous stored value
	// exceeds this many centimeters.
	MaxJump int

	// MinDistance and MaxDistance bound the plausible reading range.
	MinDistance int
	MaxDistance int

	// ForceOffsetReset rewrites the offset register to zero after every
	// completed acquisition. Works around an I2C quirk on v2 units.
	ForceOffsetReset bool
}

// DefaultConfig returns the tuning the original firmware shipped with.
func DefaultConfig() Config {
	return Config{
		FaultThreshold:   10,
		PowerOffSettle:   20 * time.Millisecond,
		PowerOnSettle:    20 * time.Millisecond,
		MaxJump:          100,
		MinDistance:      4,
		MaxDistance:      1000,
		ForceOffsetReset: true,
	}
}

// Controller drives the bank. One SpinOnce call per scheduler tick
// advances every registered unit's state machine by at most one edge;
// nothing inside ever blocks waiting for the bus or for time to pass.
type Controller struct {
	mu sync.Mutex

	cfg   Config
	bus   Transactor
	clock Clock
	seq   ResetSequencer

	sensors [Capacity]*Sensor
	tokens  [Capacity]*ResetToken
	count   int

	readingObs    []ReadingObserver
	transitionObs []TransitionObserver
}

// NewController creates a controller over the given bus.
func NewController(cfg Config, bus Transactor, clock Clock) (*Controller, error) {
	if bus == nil {
		return nil, fmt.Errorf("lidar: bus transactor required")
	}
	if clock == nil {
		clock = SystemClock
	}
	if cfg.FaultThreshold <= 0 {
		cfg.FaultThreshold = DefaultConfig().FaultThreshold
	}
	return &Controller{
		cfg:   cfg,
		bus:   bus,
		clock: clock,
	}, nil
}

// AttachReadingObserver registers a consumer of completed acquisitions.
func (c *Controller) AttachReadingObserver(o ReadingObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readingObs = append(c.readingObs, o)
}

// AttachTransitionObserver registers a state-change hook.
func (c *Controller) AttachTransitionObserver(o TransitionObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitionObs = append(c.transitionObs, o)
}

// Add registers a unit at the given slot and drives it to its initial
// powered-off state. The capacity bound is the one error surfaced
// immediately: silent truncation would corrupt the slot invariant.
func (c *Controller) Add(s *Sensor, slot int) error {
	if slot < 0 || slot >= Capacity {
		return ErrOutOfCapacity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sensors[slot] != nil {
		return fmt.Errorf("lidar: slot %d already registered", slot)
	}
	c.sensors[slot] = s
	c.count++
	c.forceReset(slot)
	return nil
}

// Count returns the number of registered units.
func (c *Controller) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// State returns the lifecycle state of the unit at slot.
func (c *Controller) State(slot int) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.at(slot)
	if err != nil {
		return 0, err
	}
	return s.state, nil
}

// SetState forces a unit into the given state from outside the loop.
// Intended for diagnostics and tests; normal operation never needs it.
func (c *Controller) SetState(slot int, st State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.at(slot)
	if err != nil {
		return err
	}
	c.transition(slot, s, st)
	return nil
}

func (c *Controller) at(slot int) (*Sensor, error) {
	if slot < 0 || slot >= Capacity || c.sensors[slot] == nil {
		return nil, fmt.Errorf("lidar: no sensor at slot %d", slot)
	}
	return c.sensors[slot], nil
}

// transition moves a unit to a new state and fires the transition hooks.
// All state changes funnel through here.
func (c *Controller) transition(slot int, s *Sensor, to State) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	for _, o := range c.transitionObs {
		o.ObserveTransition(slot, from, to)
	}
}

// fault records a failed transaction against a unit.
func (c *Controller) fault(s *Sensor) {
	s.faultCount++
}

// faultIf increments the unit's fault counter when err is non-nil and
// passes the error through.
func (c *Controller) faultIf(s *Sensor, err error) error {
	if err != nil {
		s.faultCount++
	}
	return err
}

// forceReset cuts a unit's power and schedules the power-off settle.
// Callers hold c.mu.
func (c *Controller) forceReset(slot int) {
	s := c.sensors[slot]
	s.power.Off()
	s.armTimer(c.clock.Now(), c.cfg.PowerOffSettle)
	c.transition(slot, s, StatePoweringDown)
}

// Reset forces the unit at slot through a full power-cycle and
// reassignment sequence.
func (c *Controller) Reset(slot int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.at(slot); err != nil {
		return err
	}
	c.forceReset(slot)
	return nil
}

// SpinOnce advances every registered unit by at most one state-machine
// edge, then applies the fault policy. This is the per-tick entry point.
func (c *Controller) SpinOnce() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for slot := 0; slot < Capacity; slot++ {
		s := c.sensors[slot]
		if s == nil {
			continue
		}
		c.step(slot, s, now)

		// Fault policy runs every tick regardless of which edge fired.
		if s.faultCount > c.cfg.FaultThreshold {
			s.faultCount = 0
			c.forceReset(slot)
		}
	}
}

// step executes one state-machine edge for a single unit. Waiting is
// expressed purely as staying in the same state until the next tick.
func (c *Controller) step(slot int, s *Sensor, now time.Time) {
	switch s.state {
	case StatePoweringDown:
		if !s.timerElapsed(now) {
			return
		}
		// The unit is dark; reassignment fails fast at the liveness
		// probe and the nack feeds the fault counter. Re-invoking is
		// idempotent, so this keeps the off-path identical to the
		// on-path below.
		c.changeAddress(slot, s)
		c.releaseToken(slot)
		c.transition(slot, s, StateAwaitingReset)

	case StateAwaitingReset:
		tok, ok := c.seq.TryAcquire(slot)
		if !ok {
			return
		}
		c.tokens[slot] = tok
		s.power.On()
		s.armTimer(now, c.cfg.PowerOnSettle)
		c.transition(slot, s, StateResetInFlight)

	case StateResetInFlight:
		if !s.timerElapsed(now) {
			return
		}
		c.changeAddress(slot, s)
		c.releaseToken(slot)
		c.transition(slot, s, StateNeedsConfigure)

	case StateNeedsConfigure:
		c.configure(s)
		c.transition(slot, s, StateAcquisitionReady)

	case StateAcquisitionReady:
		c.faultIf(s, c.bus.WriteRegister(s.address, RegControl, ValInitiate))
		c.transition(slot, s, StateAcquisitionPending)

	case StateAcquisitionPending:
		status, err := c.bus.ReadByte(s.address, RegStatus)
		if c.faultIf(s, err) != nil {
			return
		}
		if status&ValBusyMask != 0 {
			return
		}
		word, err := c.bus.ReadWord(s.address, RegMeasuredValue)
		c.faultIf(s, err)
		c.storeDistance(s, int(word))
		c.transition(slot, s, StateAcquisitionComplete)

	case StateAcquisitionComplete:
		strength, err := c.bus.ReadByte(s.address, RegSignalStrength)
		if c.faultIf(s, err) == nil {
			s.strength = strength
		}
		c.notify(slot, s)
		if c.cfg.ForceOffsetReset {
			c.bus.WriteRegister(s.address, RegOffset, 0x00)
		}
		c.transition(slot, s, StateAcquisitionReady)
	}
}

// storeDistance validates a fresh reading and writes it through. A
// suspect value (implausible jump or out of the plausible range) is
// still stored: suspicion travels via the fault counter, never by
// discarding data.
func (c *Controller) storeDistance(s *Sensor, d int) {
	jump := d - s.distance
	if jump < 0 {
		jump = -jump
	}
	if jump > c.cfg.MaxJump || d < c.cfg.MinDistance || d > c.cfg.MaxDistance {
		c.fault(s)
	}
	s.lastDistance = s.distance
	s.distance = d
}

// notify delivers a completed acquisition to every reading observer.
func (c *Controller) notify(slot int, s *Sensor) {
	jump := s.distance - s.lastDistance
	if jump < 0 {
		jump = -jump
	}
	r := Reading{
		Slot:     slot,
		Address:  s.address,
		Distance: s.distance,
		Last:     s.lastDistance,
		Strength: s.strength,
		Suspect:  jump > c.cfg.MaxJump || s.distance < c.cfg.MinDistance || s.distance > c.cfg.MaxDistance,
		At:       c.clock.Now(),
	}
	for _, o := range c.readingObs {
		o.ObserveReading(r)
	}
}

// releaseToken returns the reset token held by slot, if any.
func (c *Controller) releaseToken(slot int) {
	if c.tokens[slot] != nil {
		c.tokens[slot].Release()
		c.tokens[slot] = nil
	}
}

// configure applies the unit's acquisition preset: exactly one register
// write. An unmapped preset is a no-op.
func (c *Controller) configure(s *Sensor) {
	w, ok := presetWrites[s.preset]
	if !ok {
		return
	}
	c.faultIf(s, c.bus.WriteRegister(s.address, w.reg, w.val))
}

// Configure applies the preset of the unit at slot immediately.
func (c *Controller) Configure(slot int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.at(slot)
	if err != nil {
		return err
	}
	c.configure(s)
	return nil
}

// ChangeAddress runs the reassignment protocol for the unit at slot.
// See changeAddress for the step ordering.
func (c *Controller) ChangeAddress(slot int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.at(slot)
	if err != nil {
		return err
	}
	return c.changeAddress(slot, s)
}

// changeAddress moves a freshly powered unit off the factory address onto
// its target address. Six ordered steps, each tried once; the routine is
// idempotent to re-invoke (preconditions fail early if anything changed)
// and the state machine owns retry through the fault/reset cycle.
func (c *Controller) changeAddress(slot int, s *Sensor) error {
	if !c.bus.IsOnline(FactoryAddress) {
		c.fault(s)
		return ErrDeviceUnresponsive
	}
	if c.bus.IsOnline(s.address) {
		c.fault(s)
		return ErrAddressConflict
	}

	serial, err := c.bus.ReadWord(FactoryAddress, RegReadSerial)
	if c.faultIf(s, err) != nil {
		return ErrSerialRead
	}

	// The unit accepts a new address only after its serial number is
	// echoed back byte by byte.
	hi, lo := byte(serial>>8), byte(serial)
	if c.faultIf(s, c.bus.WriteRegister(FactoryAddress, RegSerial1, hi)) != nil {
		return ErrSerialWriteByte1
	}
	if c.faultIf(s, c.bus.WriteRegister(FactoryAddress, RegSerial2, lo)) != nil {
		return ErrSerialWriteByte2
	}
	if c.faultIf(s, c.bus.WriteRegister(FactoryAddress, RegAddress, s.address)) != nil {
		return ErrAddressWrite
	}
	if c.faultIf(s, c.bus.WriteRegister(FactoryAddress, RegPartyLine, ValPartyLineOff)) != nil {
		return ErrPartyLineDisable
	}
	return nil
}

// SetOffset writes a distance offset to the unit at slot.
func (c *Controller) SetOffset(slot int, offset byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.at(slot)
	if err != nil {
		return err
	}
	return c.faultIf(s, c.bus.WriteRegister(s.address, RegOffset, offset))
}

// SetVelocityScale sets the unit's velocity measurement period. The
// register takes a raw period value; see the VelocityPeriod constants.
func (c *Controller) SetVelocityScale(slot int, period byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.at(slot)
	if err != nil {
		return err
	}
	return c.faultIf(s, c.bus.WriteRegister(s.address, RegVelocityScale, period))
}

// SensorSnapshot is a point-in-time view of one unit for introspection.
type SensorSnapshot struct {
	Slot         int    `json:"slot"`
	Address      byte   `json:"address"`
	State        string `json:"state"`
	Distance     int    `json:"distance_cm"`
	LastDistance int    `json:"last_distance_cm"`
	Strength     byte   `json:"strength"`
	FaultCount   int    `json:"fault_count"`
}

// Snapshot returns a view of every registered unit, ordered by slot.
func (c *Controller) Snapshot() []SensorSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]SensorSnapshot, 0, c.count)
	for slot := 0; slot < Capacity; slot++ {
		s := c.sensors[slot]
		if s == nil {
			continue
		}
		out = append(out, SensorSnapshot{
			Slot:         slot,
			Address:      s.address,
			State:        s.state.String(),
			Distance:     s.distance,
			LastDistance: s.lastDistance,
			Strength:     s.strength,
			FaultCount:   s.faultCount,
		})
	}
	return out
}
