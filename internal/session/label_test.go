package session

import (
	"encoding/json"
	"testing"
)

func TestLabelNames(t *testing.T) {
	tests := []struct {
		label Label
		name  string
	}{
		{WalkingUp, "walkingup"},
		{WalkingDown, "walkingdown"},
		{Label(7), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.label.String(); got != tt.name {
			t.Errorf("Label(%d).String() = %q, want %q", tt.label, got, tt.name)
		}
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name string
		want Label
		ok   bool
	}{
		{"walkingdown", WalkingDown, true},
		{"WalkingDown", WalkingDown, true},
		{" WALKINGUP ", WalkingUp, true},
		{"walking up", 0, false},
		{"running", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseLabel(tt.name)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseLabel(%q) = %v, %v, want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestToggle(t *testing.T) {
	if WalkingUp.Toggle() != WalkingDown || WalkingDown.Toggle() != WalkingUp {
		t.Error("Toggle does not swap the two labels")
	}
	if WalkingUp.Toggle().Toggle() != WalkingUp {
		t.Error("double Toggle is not identity")
	}
}

func TestSnapshotJSON(t *testing.T) {
	data, err := json.Marshal(Snapshot{Recording: true, Label: WalkingDown, RunID: "r1"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"recording":true,"label":"walkingdown","runId":"r1"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Label != WalkingDown {
		t.Errorf("round-tripped Label = %v", back.Label)
	}

	if err := json.Unmarshal([]byte(`{"label":"running"}`), &back); err == nil {
		t.Error("Unmarshal of unknown label should fail")
	}
}
