package hardware

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
)

// SSD1306 control bytes and commands.
const (
	ctrlCommand = 0x00
	ctrlData    = 0x40

	cmdDisplayOff    = 0xAE
	cmdDisplayOn     = 0xAF
	cmdColumnAddress = 0x21
	cmdPageAddress   = 0x22

	// The controller addresses 128 columns; narrower glass is centred.
	controllerWidth = 128
)

var face = basicfont.Face7x13

// OLED is a monochrome SSD1306 panel driven over I2C. It renders short
// status text in a fixed 7x13 font, wrapping on spaces.
type OLED struct {
	mu     sync.Mutex
	dev    *i2c.Dev
	width  int
	height int
	offset int
}

// NewOLED initialises the controller for a width x height panel at addr and
// leaves the display on and blank.
func NewOLED(bus i2c.Bus, addr uint16, width, height int) (*OLED, error) {
	if width <= 0 || width > controllerWidth || height <= 0 || height > 64 || height%8 != 0 {
		return nil, fmt.Errorf("unsupported panel size %dx%d", width, height)
	}
	o := &OLED{
		dev:    &i2c.Dev{Bus: bus, Addr: addr},
		width:  width,
		height: height,
		offset: (controllerWidth - width) / 2,
	}
	setup := []byte{
		cmdDisplayOff,
		0xD5, 0x80, // clock divide
		0xA8, byte(height - 1), // multiplex
		0xD3, 0x00, // display offset
		0x40,       // start line 0
		0x8D, 0x14, // charge pump on
		0x20, 0x00, // horizontal addressing
		0xA1,       // segment remap
		0xC8,       // COM scan descending
		0xDA, 0x12, // COM pins
		0x81, 0x8F, // contrast
		0xD9, 0xF1, // precharge
		0xDB, 0x40, // VCOMH deselect
		0xA4, // resume from RAM
		0xA6, // normal, not inverted
	}
	if err := o.command(setup...); err != nil {
		return nil, fmt.Errorf("init ssd1306 at %#x: %w", addr, err)
	}
	if err := o.Clear(); err != nil {
		return nil, err
	}
	if err := o.command(cmdDisplayOn); err != nil {
		return nil, err
	}
	return o, nil
}

// Show replaces the screen contents with text.
func (o *OLED) Show(text string) error {
	return o.flush(pack(render(text, o.width, o.height)))
}

// Clear blanks the screen.
func (o *OLED) Clear() error {
	return o.flush(make([]byte, o.width*o.height/8))
}

// Halt blanks the screen and switches the panel off.
func (o *OLED) Halt() error {
	if err := o.Clear(); err != nil {
		return err
	}
	return o.command(cmdDisplayOff)
}

func (o *OLED) String() string {
	return fmt.Sprintf("SSD1306@%#x %dx%d", o.dev.Addr, o.width, o.height)
}

func (o *OLED) command(cmds ...byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dev.Tx(append([]byte{ctrlCommand}, cmds...), nil)
}

func (o *OLED) flush(frame []byte) error {
	window := []byte{
		cmdColumnAddress, byte(o.offset), byte(o.offset + o.width - 1),
		cmdPageAddress, 0, byte(o.height/8 - 1),
	}
	if err := o.command(window...); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dev.Tx(append([]byte{ctrlData}, frame...), nil)
}

// wrap splits text into lines of at most cols characters, breaking on
// spaces where possible and hard-wrapping longer words.
func wrap(text string, cols int) []string {
	var lines []string
	for _, word := range strings.Fields(text) {
		for len(word) > cols {
			lines = append(lines, word[:cols])
			word = word[cols:]
		}
		if n := len(lines); n > 0 && len(lines[n-1])+1+len(word) <= cols {
			lines[n-1] += " " + word
			continue
		}
		lines = append(lines, word)
	}
	return lines
}

// render draws text top-left aligned, one wrapped line per font row.
func render(text string, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	adv := face.Advance
	lineHeight := face.Height
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	for i, line := range wrap(text, width/adv) {
		top := i * lineHeight
		if top+lineHeight > height {
			break
		}
		d.Dot = fixed.P(0, top+face.Ascent)
		d.DrawString(line)
	}
	return img
}

// pack converts img into SSD1306 page format: one byte per column per
// 8-row page, least significant bit at the top.
func pack(img *image.Gray) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h/8)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.GrayAt(b.Min.X+x, b.Min.Y+y).Y >= 0x80 {
				out[(y/8)*w+x] |= 1 << uint(y%8)
			}
		}
	}
	return out
}
