// Command pedal-sim runs the pedal firmware against simulated hardware in
// the terminal. Number keys latch footswitches, so chords and long presses
// can be played from a keyboard.
package main

import (
	"flag"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sweeney/midi-pedal/internal/pedal"
)

func main() {
	volts := flag.Float64("volts", 3.9, "Starting battery voltage")
	sleepTimeout := flag.Duration("sleep-timeout", time.Minute, "Idle time before sleeping while disconnected")
	logFile := flag.String("log", "", "Write logs to this file (default: discard)")
	flag.Parse()

	// The TUI owns the terminal; keep log output off it.
	log.SetOutput(io.Discard)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	cfg := pedal.DefaultConfig()
	cfg.Mode.SleepTimeout = *sleepTimeout

	m := newModel(cfg, *volts, time.Now)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("fatal: %v", err)
	}
}
