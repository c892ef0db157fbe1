package sim

import "sync"

// Display is a virtual OLED. Each change is handed to the OnChange
// callback, which must not block for long.
type Display struct {
	mu       sync.Mutex
	text     string
	onChange func(text string)
}

// NewDisplay returns a blank Display calling onChange on every update. A nil
// onChange is allowed.
func NewDisplay(onChange func(text string)) *Display {
	return &Display{onChange: onChange}
}

func (d *Display) Show(text string) error {
	d.set(text)
	return nil
}

func (d *Display) Clear() error {
	d.set("")
	return nil
}

// Text returns what the display currently shows.
func (d *Display) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

func (d *Display) set(text string) {
	d.mu.Lock()
	d.text = text
	fn := d.onChange
	d.mu.Unlock()
	if fn != nil {
		fn(text)
	}
}
