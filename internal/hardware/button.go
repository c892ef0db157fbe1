package hardware

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Button is an active-low push button on a GPIO pin with the internal
// pull-up enabled.
type Button struct {
	pin gpio.PinIO
}

// OpenButton configures the named pin as a pulled-up input.
func OpenButton(name string) (*Button, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	return NewButton(p)
}

// NewButton configures p as a pulled-up input without edge detection.
func NewButton(p gpio.PinIO) (*Button, error) {
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure %s: %w", p, err)
	}
	return &Button{pin: p}, nil
}

// Read returns true while the button is released.
func (b *Button) Read() (bool, error) {
	return b.pin.Read() == gpio.High, nil
}

func (b *Button) String() string {
	return b.pin.Name()
}

// Close stops the pin.
func (b *Button) Close() error {
	return b.pin.Halt()
}
