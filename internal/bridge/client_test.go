// internal/bridge/client_test.go
package bridge

import (
	"errors"
	"testing"
)

// fakeModbus scripts the register bridge at the Modbus layer and records
// writes, so the address geometry is checked without a serial link.
type fakeModbus struct {
	holding  map[uint16][]byte
	discrete map[uint16]byte
	fail     bool

	regWrites  []regWrite
	coilWrites []coilWrite
}

type regWrite struct{ addr, val uint16 }

type coilWrite struct{ addr, val uint16 }

func newFakeModbus() *fakeModbus {
	return &fakeModbus{
		holding:  make(map[uint16][]byte),
		discrete: make(map[uint16]byte),
	}
}

var errLink = errors.New("link down")

func (f *fakeModbus) ReadCoils(address, quantity uint16) ([]byte, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeModbus) ReadDiscreteInputs(address, quantity uint16) ([]byte, error) {
	if f.fail {
		return nil, errLink
	}
	return []byte{f.discrete[address]}, nil
}

func (f *fakeModbus) WriteSingleCoil(address, value uint16) ([]byte, error) {
	if f.fail {
		return nil, errLink
	}
	f.coilWrites = append(f.coilWrites, coilWrite{address, value})
	return nil, nil
}

func (f *fakeModbus) WriteMultipleCoils(address, quantity uint16, value []byte) ([]byte, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeModbus) ReadInputRegisters(address, quantity uint16) ([]byte, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeModbus) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	if f.fail {
		return nil, errLink
	}
	raw, ok := f.holding[address]
	if !ok {
		return []byte{0x00, 0x00}, nil
	}
	return raw, nil
}

func (f *fakeModbus) WriteSingleRegister(address, value uint16) ([]byte, error) {
	if f.fail {
		return nil, errLink
	}
	f.regWrites = append(f.regWrites, regWrite{address, value})
	return nil, nil
}

func (f *fakeModbus) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeModbus) ReadWriteMultipleRegisters(readAddress, readQuantity, writeAddress, writeQuantity uint16, value []byte) ([]byte, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeModbus) MaskWriteRegister(address, andMask, orMask uint16) ([]byte, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeModbus) ReadFIFOQueue(address uint16) ([]byte, error) {
	return nil, errors.New("not scripted")
}

// ---- geometry ----

func TestWriteRegister_Geometry(t *testing.T) {
	fm := newFakeModbus()
	c := NewWithClient(fm)

	if err := c.WriteRegister(0x62, 0x1a, 0x66); err != nil {
		t.Fatalf("WriteRegister: %v", err)
	}

	want := regWrite{0x621a, 0x0066}
	if len(fm.regWrites) != 1 || fm.regWrites[0] != want {
		t.Fatalf("regWrites=%v want %v", fm.regWrites, want)
	}
}

func TestReadByte_LowByte(t *testing.T) {
	fm := newFakeModbus()
	fm.holding[0x6601] = []byte{0xAB, 0xCD}
	c := NewWithClient(fm)

	v, err := c.ReadByte(0x66, 0x01)
	if err != nil {
		t.Fatalf("ReadByte: %v", err)
	}
	if v != 0xCD {
		t.Fatalf("ReadByte=0x%02x want low byte 0xCD", v)
	}
}

func TestReadWord_BigEndian(t *testing.T) {
	fm := newFakeModbus()
	fm.holding[0x668f] = []byte{0x01, 0xF4}
	c := NewWithClient(fm)

	v, err := c.ReadWord(0x66, 0x8f)
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if v != 500 {
		t.Fatalf("ReadWord=%d want 500", v)
	}
}

func TestReadByte_ShortPayload(t *testing.T) {
	fm := newFakeModbus()
	fm.holding[0x6601] = []byte{0xAB}
	c := NewWithClient(fm)

	if _, err := c.ReadByte(0x66, 0x01); err == nil {
		t.Fatalf("expected short payload error")
	}
}

func TestIsOnline(t *testing.T) {
	fm := newFakeModbus()
	fm.discrete[0x62] = 0x01
	c := NewWithClient(fm)

	if !c.IsOnline(0x62) {
		t.Fatalf("0x62 should probe online")
	}
	if c.IsOnline(0x66) {
		t.Fatalf("0x66 should probe offline")
	}

	fm.fail = true
	if c.IsOnline(0x62) {
		t.Fatalf("a failed probe transaction counts as offline")
	}
}

// ---- power coil ----

func TestPowerCoil_Toggles(t *testing.T) {
	fm := newFakeModbus()
	c := NewWithClient(fm)
	pin := c.PowerCoil(3)

	pin.On()
	pin.Off()

	want := []coilWrite{{3, coilOn}, {3, coilOff}}
	if len(fm.coilWrites) != 2 || fm.coilWrites[0] != want[0] || fm.coilWrites[1] != want[1] {
		t.Fatalf("coilWrites=%v want %v", fm.coilWrites, want)
	}
}

func TestPowerCoil_FailureAbsorbed(t *testing.T) {
	fm := newFakeModbus()
	fm.fail = true
	c := NewWithClient(fm)

	c.PowerCoil(0).On() // must not panic; the fault cycle handles it
}

func TestNew_RequiresDevice(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for missing device")
	}
}
