// Package button turns a polled push-button input into classified click
// events.
//
// The flow is:
//
//	Input ──poll──▶ Detector ──debounced edge──▶ Classifier ──ClickEvent──▶ Queue
//
// The Detector samples the input every poll interval and confirms a HIGH→LOW
// transition by re-reading it after the debounce hold. Confirmed edges are
// stamped with the time the transition was first seen and handed to the
// Classifier, which waits up to the double-click window for a second edge.
// The Classifier is also ticked on every poll so that a lone click resolves
// as Single without waiting for another press.
package button

// ClickEvent is a resolved button gesture.
type ClickEvent int

const (
	Single ClickEvent = iota + 1
	Double
)

func (e ClickEvent) String() string {
	switch e {
	case Single:
		return "single"
	case Double:
		return "double"
	}
	return "unknown"
}
