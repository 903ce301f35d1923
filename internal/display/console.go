package display

import (
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/sweeney/midi-pedal/internal/mode"
)

// formFeed homes and clears a serial character display.
const formFeed = "\f"

// Console writes the two-line layout to a character display or terminal.
type Console struct {
	w io.Writer
}

// NewConsole writes to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// OpenSerial opens a serial character display.
func OpenSerial(port string, baud int) (*Console, io.Closer, error) {
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, nil, fmt.Errorf("open serial display %s: %w", port, err)
	}
	return NewConsole(p), p, nil
}

func (c *Console) Render(f mode.Frame) error {
	return c.write(Lines(f))
}

func (c *Console) ShowMessage(text string) error {
	return c.write(MessageLines(text))
}

func (c *Console) write(lines [2]string) error {
	if _, err := fmt.Fprintf(c.w, "%s%s\n%s\n", formFeed, lines[0], lines[1]); err != nil {
		return fmt.Errorf("write display: %w", err)
	}
	return nil
}
