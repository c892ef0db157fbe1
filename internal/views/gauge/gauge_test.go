package gauge

import (
	"math"
	"strings"
	"testing"
)

func TestStepConverges(t *testing.T) {
	m := New()
	m.SetTarget(1)
	for i := 0; i < 5*FPS; i++ {
		m.Step()
	}
	if math.Abs(m.Value()-1) > 0.01 {
		t.Errorf("Value() = %v after 5s, want about 1", m.Value())
	}
	if got := m.fill(); got != m.Width/2 {
		t.Errorf("fill() = %d, want %d", got, m.Width/2)
	}
}

func TestStepIsSmooth(t *testing.T) {
	m := New()
	m.SetTarget(2)
	m.Step()
	if v := m.Value(); v <= 0 || v >= 2 {
		t.Errorf("Value() after one frame = %v, want strictly between 0 and 2", v)
	}
}

func TestFillClamped(t *testing.T) {
	m := New()
	m.pos = 5
	if got := m.fill(); got != m.Width {
		t.Errorf("fill() = %d, want %d", got, m.Width)
	}
	m.pos = -1
	if got := m.fill(); got != 0 {
		t.Errorf("fill() = %d, want 0", got)
	}
}

func TestView(t *testing.T) {
	m := New()
	m.SetTarget(1.25)
	if v := m.View(); !strings.Contains(v, "1.25g") {
		t.Errorf("View() = %q, want the target magnitude", v)
	}
}
