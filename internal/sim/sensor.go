package sim

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/stairlog/agent/internal/clock"
	"github.com/stairlog/agent/internal/sampler"
	"github.com/stairlog/agent/internal/session"
)

// ErrInjected is returned by Sensor reads while fault injection is on.
var ErrInjected = errors.New("sim: injected sensor fault")

// gait describes a synthetic stair-walking acceleration pattern.
type gait struct {
	cadence float64 // steps per second
	lean    float64 // constant forward tilt on X, in g
	sway    float64 // lateral amplitude on Y
	impact  float64 // vertical amplitude on Z
	sharp   float64 // exponent shaping the heel strike
}

var gaits = map[session.Label]gait{
	session.WalkingUp:   {cadence: 1.6, lean: 0.18, sway: 0.08, impact: 0.30, sharp: 1},
	session.WalkingDown: {cadence: 1.9, lean: -0.10, sway: 0.12, impact: 0.55, sharp: 3},
}

// Sensor synthesises a gait-like 3-axis signal whose shape follows the
// current label.
type Sensor struct {
	mu     sync.Mutex
	clock  clock.Clock
	label  func() session.Label
	start  time.Time
	rng    *rand.Rand
	noise  float64
	faulty bool
	last   sampler.Reading
}

// NewSensor returns a Sensor that asks label for the activity to mimic.
func NewSensor(c clock.Clock, label func() session.Label, seed uint64) *Sensor {
	return &Sensor{
		clock: c,
		label: label,
		start: c.Now(),
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		noise: 0.02,
	}
}

// SetFaulty turns read failures on or off.
func (s *Sensor) SetFaulty(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faulty = on
}

// Faulty reports whether reads currently fail.
func (s *Sensor) Faulty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faulty
}

func (s *Sensor) Read() (sampler.Reading, error) {
	label := s.label()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.faulty {
		return sampler.Reading{}, ErrInjected
	}
	t := s.clock.Now().Sub(s.start).Seconds()
	s.last = synth(gaits[label], t, s.noise, s.rng)
	return s.last, nil
}

// Last returns the most recent successful reading.
func (s *Sensor) Last() sampler.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func synth(g gait, t, noise float64, rng *rand.Rand) sampler.Reading {
	phase := 2 * math.Pi * g.cadence * t
	step := math.Pow(math.Abs(math.Sin(phase)), g.sharp)
	n := func() float64 {
		if rng == nil {
			return 0
		}
		return rng.NormFloat64() * noise
	}
	return sampler.Reading{
		X: float32(g.lean + 0.05*math.Sin(2*phase) + n()),
		Y: float32(g.sway*math.Sin(phase/2) + n()),
		Z: float32(1 + g.impact*(step-0.5) + n()),
	}
}

// Magnitude returns the Euclidean norm of r in g.
func Magnitude(r sampler.Reading) float64 {
	x, y, z := float64(r.X), float64(r.Y), float64(r.Z)
	return math.Sqrt(x*x + y*y + z*z)
}
