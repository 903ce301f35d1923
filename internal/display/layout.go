package display

import (
	"fmt"
	"strings"

	"github.com/sweeney/midi-pedal/internal/mode"
)

// Width is the character width of the two-line panel.
const Width = 16

// Lines lays out f as two fixed-width lines:
//
//	CH:01 BT:ON  85%
//	Ready
func Lines(f mode.Frame) [2]string {
	bt := "OFF"
	if f.Connected {
		bt = "ON"
	}
	top := fmt.Sprintf("CH:%02d BT:%-3s%3d%%", f.Channel, bt, f.BatteryPercent)

	var bottom string
	switch f.Mode {
	case mode.Pairing:
		if f.BlinkOn {
			bottom = "Pairing..."
		}
	case mode.ChannelDisplay:
		bottom = "Ready"
	case mode.BatteryDisplay:
		bottom = fmt.Sprintf("Battery %d%%", f.BatteryPercent)
	case mode.Sleep:
		bottom = "Sleep Mode"
	}
	if f.Charging && f.Mode != mode.Sleep {
		bottom = fmt.Sprintf("%-13s%s", fit(bottom, Width-3), "CHG")
	}
	return [2]string{fit(top, Width), fit(bottom, Width)}
}

// MessageLines splits a transient message into at most two lines.
func MessageLines(text string) [2]string {
	var out [2]string
	parts := strings.SplitN(text, "\n", 2)
	for i, p := range parts {
		out[i] = fit(p, Width)
	}
	return out
}

// fit truncates s to n characters.
func fit(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
