// internal/hw/gpio.go
package hw

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

var (
	gpioMu   sync.Mutex
	gpioOpen bool
)

// OpenGPIO maps the Raspberry Pi GPIO memory. Safe to call more than
// once; the first successful call wins.
func OpenGPIO() error {
	gpioMu.Lock()
	defer gpioMu.Unlock()
	if gpioOpen {
		return nil
	}
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("hw: gpio open: %w", err)
	}
	gpioOpen = true
	return nil
}

// CloseGPIO unmaps the GPIO memory.
func CloseGPIO() error {
	gpioMu.Lock()
	defer gpioMu.Unlock()
	if !gpioOpen {
		return nil
	}
	gpioOpen = false
	return rpio.Close()
}

// GPIOPin is a lidar.PowerPin on a BCM GPIO line driving a sensor's
// power-enable input.
type GPIOPin struct {
	pin rpio.Pin
}

// NewGPIOPin configures the given BCM pin as an output, initially low.
func NewGPIOPin(bcm int) *GPIOPin {
	p := rpio.Pin(bcm)
	p.Output()
	p.Low()
	return &GPIOPin{pin: p}
}

func (p *GPIOPin) On()  { p.pin.High() }
func (p *GPIOPin) Off() { p.pin.Low() }

// NoopPin satisfies lidar.PowerPin for bench setups where the power
// rails are hardwired.
type NoopPin struct{}

func (NoopPin) On()  {}
func (NoopPin) Off() {}
