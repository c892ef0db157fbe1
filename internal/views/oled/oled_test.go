package oled

import (
	"reflect"
	"strings"
	"testing"
)

func TestLines(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"", nil},
		{"OFF", []string{"OFF"}},
		{"REC: walkingup", []string{"REC:", "walkingup"}},
		{"Label: walkingdown", []string{"Label:", "walkingdo", "wn"}},
		{"one two three four five", []string{"one two", "three", "four five"}},
	}
	for _, tt := range tests {
		m := Model{Text: tt.text}
		if got := m.Lines(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Lines(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestViewShowsText(t *testing.T) {
	v := Model{Text: "REC: walkingup"}.View()
	for _, want := range []string{"REC:", "walkingup", "OLED"} {
		if !strings.Contains(v, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
