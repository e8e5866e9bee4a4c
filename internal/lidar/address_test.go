// internal/lidar/address_test.go
package lidar

import "testing"

func addrController(t *testing.T, bus *fakeBus) *Controller {
	t.Helper()
	c := newTestController(t, bus, &fakeClock{})
	if err := c.Add(NewSensor(0x66, PresetDefault, &fakePin{}), 0); err != nil {
		t.Fatalf("Add: %v", err)
	}
	c.sensors[0].faultCount = 0
	return c
}

// healthyBus scripts a bus on which reassignment fully succeeds.
func healthyBus() *fakeBus {
	bus := newFakeBus()
	bus.online[FactoryAddress] = true
	bus.words[regKey{FactoryAddress, RegReadSerial}] = 0xA55A
	return bus
}

func TestChangeAddress_Success(t *testing.T) {
	bus := healthyBus()
	c := addrController(t, bus)

	if err := c.ChangeAddress(0); err != nil {
		t.Fatalf("ChangeAddress: %v", err)
	}

	want := []busWrite{
		{FactoryAddress, RegSerial1, 0xA5},
		{FactoryAddress, RegSerial2, 0x5A},
		{FactoryAddress, RegAddress, 0x66},
		{FactoryAddress, RegPartyLine, ValPartyLineOff},
	}
	if len(bus.writes) != len(want) {
		t.Fatalf("writes=%v", bus.writes)
	}
	for i, w := range want {
		if bus.writes[i] != w {
			t.Fatalf("write %d=%v want %v", i, bus.writes[i], w)
		}
	}
	if c.sensors[0].FaultCount() != 0 {
		t.Fatalf("faultCount=%d want 0", c.sensors[0].FaultCount())
	}
}

func TestChangeAddress_UnresponsiveWritesNothing(t *testing.T) {
	bus := newFakeBus() // nothing online
	c := addrController(t, bus)

	if err := c.ChangeAddress(0); err != ErrDeviceUnresponsive {
		t.Fatalf("err=%v want ErrDeviceUnresponsive", err)
	}
	if len(bus.writes) != 0 {
		t.Fatalf("unresponsive probe must precede all writes, got %v", bus.writes)
	}
	if c.sensors[0].FaultCount() != 1 {
		t.Fatalf("faultCount=%d want 1", c.sensors[0].FaultCount())
	}
}

func TestChangeAddress_ConflictWritesNothing(t *testing.T) {
	bus := healthyBus()
	bus.online[0x66] = true
	c := addrController(t, bus)

	if err := c.ChangeAddress(0); err != ErrAddressConflict {
		t.Fatalf("err=%v want ErrAddressConflict", err)
	}
	if len(bus.writes) != 0 {
		t.Fatalf("conflict probe must precede all writes, got %v", bus.writes)
	}
	if c.sensors[0].FaultCount() != 1 {
		t.Fatalf("faultCount=%d want 1", c.sensors[0].FaultCount())
	}
}

func TestChangeAddress_SerialReadFailure(t *testing.T) {
	bus := healthyBus()
	bus.failWord[regKey{FactoryAddress, RegReadSerial}] = true
	c := addrController(t, bus)

	if err := c.ChangeAddress(0); err != ErrSerialRead {
		t.Fatalf("err=%v want ErrSerialRead", err)
	}
	if len(bus.writes) != 0 {
		t.Fatalf("failed serial read must stop before any write, got %v", bus.writes)
	}
}

func TestChangeAddress_StepFailuresStopInOrder(t *testing.T) {
	cases := []struct {
		name       string
		failReg    byte
		wantErr    error
		wantWrites int
	}{
		{"serial byte 1", RegSerial1, ErrSerialWriteByte1, 0},
		{"serial byte 2", RegSerial2, ErrSerialWriteByte2, 1},
		{"address", RegAddress, ErrAddressWrite, 2},
		{"party line", RegPartyLine, ErrPartyLineDisable, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bus := healthyBus()
			bus.failWrite[regKey{FactoryAddress, tc.failReg}] = true
			c := addrController(t, bus)

			if err := c.ChangeAddress(0); err != tc.wantErr {
				t.Fatalf("err=%v want %v", err, tc.wantErr)
			}
			if len(bus.writes) != tc.wantWrites {
				t.Fatalf("writes=%v want %d prior writes", bus.writes, tc.wantWrites)
			}
			if c.sensors[0].FaultCount() != 1 {
				t.Fatalf("faultCount=%d want exactly 1 per attempt", c.sensors[0].FaultCount())
			}
		})
	}
}

func TestChangeAddress_IdempotentRetry(t *testing.T) {
	bus := healthyBus()
	c := addrController(t, bus)

	if err := c.ChangeAddress(0); err != nil {
		t.Fatalf("first attempt: %v", err)
	}

	// After a successful reassignment the unit answers its own address
	// and the retry fails the conflict precondition without writing.
	bus.online[0x66] = true
	bus.writes = nil
	if err := c.ChangeAddress(0); err != ErrAddressConflict {
		t.Fatalf("retry err=%v want ErrAddressConflict", err)
	}
	if len(bus.writes) != 0 {
		t.Fatalf("retry must not write, got %v", bus.writes)
	}
}
