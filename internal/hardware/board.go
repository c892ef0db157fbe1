// Package hardware binds the agent's capabilities to a Linux single-board
// computer through periph.io: a GPIO push button, an LSM6DS3 accelerometer
// and an SSD1306 OLED, both on I2C.
package hardware

import (
	"errors"
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/stairlog/agent/internal/config"
	"github.com/stairlog/agent/internal/fault"
)

// Board owns every hardware handle the agent acquires.
type Board struct {
	Button  *Button
	Sensor  *LSM6DS3
	Display *OLED

	buses []i2c.BusCloser
}

// Open initialises the host drivers and acquires the button pin, the sensor
// and the display. Any failure releases what was already acquired and is
// returned as a fault.Resource error.
func Open(cfg *config.Config) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fault.New(fault.Resource, "host init", err)
	}

	b := &Board{}
	ready := false
	defer func() {
		if !ready {
			if err := b.Close(); err != nil {
				log.Printf("Releasing partially opened board: %v", err)
			}
		}
	}()

	var err error
	if b.Button, err = OpenButton(cfg.Button.Pin); err != nil {
		return nil, fault.New(fault.Resource, "button", err)
	}

	sensorBus, err := b.openBus(cfg.Sensor.Bus)
	if err != nil {
		return nil, fault.New(fault.Resource, "sensor bus", err)
	}
	if b.Sensor, err = NewLSM6DS3(sensorBus, cfg.Sensor.Address, cfg.Sensor.Scale); err != nil {
		return nil, fault.New(fault.Resource, "sensor", err)
	}

	displayBus := sensorBus
	if cfg.Display.Bus != cfg.Sensor.Bus {
		if displayBus, err = b.openBus(cfg.Display.Bus); err != nil {
			return nil, fault.New(fault.Resource, "display bus", err)
		}
	}
	if b.Display, err = NewOLED(displayBus, cfg.Display.Address, cfg.Display.Width, cfg.Display.Height); err != nil {
		return nil, fault.New(fault.Resource, "display", err)
	}

	ready = true
	log.Printf("Hardware ready: button %s, sensor %s, display %s", b.Button, b.Sensor, b.Display)
	return b, nil
}

func (b *Board) openBus(name string) (i2c.BusCloser, error) {
	bus, err := i2creg.Open(name)
	if err != nil {
		if name == "" {
			name = "default"
		}
		return nil, fmt.Errorf("open i2c bus %s: %w", name, err)
	}
	b.buses = append(b.buses, bus)
	return bus, nil
}

// Close powers the display off and releases the pin and buses. It is safe to
// call on a partially opened board and more than once.
func (b *Board) Close() error {
	var errs []error
	if b.Display != nil {
		if err := b.Display.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("display: %w", err))
		}
		b.Display = nil
	}
	if b.Button != nil {
		if err := b.Button.Close(); err != nil {
			errs = append(errs, fmt.Errorf("button: %w", err))
		}
		b.Button = nil
	}
	for i := len(b.buses) - 1; i >= 0; i-- {
		if err := b.buses[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("i2c bus: %w", err))
		}
	}
	b.buses = nil
	b.Sensor = nil
	return errors.Join(errs...)
}
