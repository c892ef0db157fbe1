package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Label is the activity a recorded sample is tagged with. It is always one
// of the two declared values.
type Label int

const (
	WalkingUp Label = iota
	WalkingDown
)

var labelNames = map[Label]string{
	WalkingUp:   "walkingup",
	WalkingDown: "walkingdown",
}

var labelFromName = map[string]Label{
	"walkingup":   WalkingUp,
	"walkingdown": WalkingDown,
}

var fold = cases.Fold()

// ParseLabel returns the label with the given name, ignoring case and
// surrounding space, so "WalkingUp" in a config file is accepted.
func ParseLabel(name string) (Label, bool) {
	l, ok := labelFromName[fold.String(strings.TrimSpace(name))]
	return l, ok
}

func (l Label) String() string {
	if s, ok := labelNames[l]; ok {
		return s
	}
	return "unknown"
}

// Toggle returns the other label.
func (l Label) Toggle() Label {
	if l == WalkingUp {
		return WalkingDown
	}
	return WalkingUp
}

func (l Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, ok := labelFromName[s]
	if !ok {
		return fmt.Errorf("unknown label %q", s)
	}
	*l = v
	return nil
}
