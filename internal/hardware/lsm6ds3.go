package hardware

import (
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/i2c"

	"github.com/stairlog/agent/internal/sampler"
)

// LSM6DS3 register map, accelerometer subset.
const (
	regWhoAmI  = 0x0F
	regCtrl1XL = 0x10
	regCtrl3C  = 0x12
	regOutXLXL = 0x28

	// 104 Hz output data rate, +/-2 g full scale.
	ctrl1XL104Hz2g = 0x40
	// Block data update and register auto-increment.
	ctrl3CBDUInc = 0x44
)

var lsm6ds3IDs = map[byte]string{
	0x69: "LSM6DS3",
	0x6A: "LSM6DSL",
}

// LSM6DS3 reads acceleration from an ST LSM6DS3 family IMU.
type LSM6DS3 struct {
	dev   *i2c.Dev
	scale float64
	name  string
}

// NewLSM6DS3 checks the device identity at addr and enables the
// accelerometer. scale converts raw counts to g.
func NewLSM6DS3(bus i2c.Bus, addr uint16, scale float64) (*LSM6DS3, error) {
	dev := &i2c.Dev{Bus: bus, Addr: addr}

	id := make([]byte, 1)
	if err := dev.Tx([]byte{regWhoAmI}, id); err != nil {
		return nil, fmt.Errorf("read WHO_AM_I at %#x: %w", addr, err)
	}
	name, ok := lsm6ds3IDs[id[0]]
	if !ok {
		return nil, fmt.Errorf("unexpected WHO_AM_I %#x at %#x", id[0], addr)
	}

	if err := dev.Tx([]byte{regCtrl3C, ctrl3CBDUInc}, nil); err != nil {
		return nil, fmt.Errorf("write CTRL3_C: %w", err)
	}
	if err := dev.Tx([]byte{regCtrl1XL, ctrl1XL104Hz2g}, nil); err != nil {
		return nil, fmt.Errorf("write CTRL1_XL: %w", err)
	}
	return &LSM6DS3{dev: dev, scale: scale, name: name}, nil
}

// Read returns one calibrated acceleration sample.
func (s *LSM6DS3) Read() (sampler.Reading, error) {
	var raw [6]byte
	if err := s.dev.Tx([]byte{regOutXLXL}, raw[:]); err != nil {
		return sampler.Reading{}, err
	}
	return decodeAccel(raw[:], s.scale), nil
}

func (s *LSM6DS3) String() string {
	return fmt.Sprintf("%s@%#x", s.name, s.dev.Addr)
}

// decodeAccel converts the little-endian X, Y, Z output registers.
func decodeAccel(raw []byte, scale float64) sampler.Reading {
	axis := func(i int) float32 {
		return float32(float64(int16(binary.LittleEndian.Uint16(raw[i:]))) * scale)
	}
	return sampler.Reading{X: axis(0), Y: axis(2), Z: axis(4)}
}
