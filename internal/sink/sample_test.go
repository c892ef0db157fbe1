package sink

import (
	"testing"
	"time"

	"github.com/stairlog/agent/internal/session"
)

func TestRecord(t *testing.T) {
	s := Sample{
		Time:  time.Date(2026, 3, 1, 9, 30, 15, 123456000, time.Local),
		X:     0.061,
		Y:     -1.5,
		Z:     0,
		Label: session.WalkingDown,
	}
	got := s.Record()
	want := []string{"2026-03-01T09:30:15.123456", "0.061", "-1.5", "0", "walkingdown"}
	if len(got) != len(want) {
		t.Fatalf("Record() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Record()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDestinationFor(t *testing.T) {
	tests := []struct {
		label session.Label
		key   string
	}{
		{session.WalkingUp, "walkingup/up_ML1"},
		{session.WalkingDown, "walkingdown/dw_ML1"},
	}
	for _, tt := range tests {
		if got := DestinationFor(tt.label).Key(); got != tt.key {
			t.Errorf("DestinationFor(%v).Key() = %q, want %q", tt.label, got, tt.key)
		}
	}
	if DestinationFor(session.WalkingUp) == DestinationFor(session.WalkingDown) {
		t.Error("labels must map to distinct destinations")
	}
}
