// internal/bridge/power.go
package bridge

import "log"

const (
	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000
)

// PowerCoil is a lidar.PowerPin backed by one of the bridge's power-rail
// coils. Coil writes share the serial link with register traffic, so a
// failed toggle is logged and absorbed: the state machine's settle timer
// and fault counter handle a rail that did not actually switch.
type PowerCoil struct {
	cli     *Client
	channel uint16
}

// PowerCoil returns the power pin for the given bridge channel.
func (c *Client) PowerCoil(channel uint16) *PowerCoil {
	return &PowerCoil{cli: c, channel: channel}
}

func (p *PowerCoil) On() {
	p.cli.mu.Lock()
	defer p.cli.mu.Unlock()
	if _, err := p.cli.cli.WriteSingleCoil(p.channel, coilOn); err != nil {
		log.Printf("bridge: power on failed (channel=%d): %v", p.channel, err)
	}
}

func (p *PowerCoil) Off() {
	p.cli.mu.Lock()
	defer p.cli.mu.Unlock()
	if _, err := p.cli.cli.WriteSingleCoil(p.channel, coilOff); err != nil {
		log.Printf("bridge: power off failed (channel=%d): %v", p.channel, err)
	}
}
