//go:build linux

package hw

import (
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/warthog618/go-gpiocdev"
)

// RealPower halts the pedal until a switch is pressed, then re-executes
// the process so waking behaves like a cold boot.
type RealPower struct {
	pins Pins
	// Release is called before sleeping or restarting to free GPIO lines
	// and flush collaborators.
	Release func()
}

// NewRealPower watches pins for wake.
func NewRealPower(pins Pins, release func()) *RealPower {
	return &RealPower{pins: pins, Release: release}
}

// Sleep blocks until any switch edge, then restarts.
func (p *RealPower) Sleep() {
	p.release()
	woke := make(chan int, 1)
	if err := p.armWake(woke); err != nil {
		log.Printf("power: arm wake: %v; restarting instead", err)
		p.exec()
		return
	}
	off := <-woke
	log.Printf("power: woken by line %d", off)
	p.exec()
}

func (p *RealPower) armWake(woke chan<- int) error {
	chip, err := gpiocdev.NewChip(p.pins.Chip)
	if err != nil {
		return fmt.Errorf("open gpio chip: %w", err)
	}
	handler := func(evt gpiocdev.LineEvent) {
		select {
		case woke <- evt.Offset:
		default:
		}
	}
	// The lines stay requested until exec replaces the process.
	_, err = chip.RequestLines(p.pins.Switches[:],
		gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow,
		gpiocdev.WithBothEdges, gpiocdev.WithEventHandler(handler))
	if err != nil {
		chip.Close()
		return fmt.Errorf("request wake lines: %w", err)
	}
	log.Printf("power: sleeping, wake on any switch")
	return nil
}

// Restart re-executes the current binary.
func (p *RealPower) Restart() {
	p.release()
	p.exec()
}

func (p *RealPower) release() {
	if p.Release != nil {
		p.Release()
		p.Release = nil
	}
}

func (p *RealPower) exec() {
	exe, err := os.Executable()
	if err != nil {
		log.Fatalf("power: find executable: %v", err)
	}
	log.Printf("power: restarting %s", exe)
	if err := syscall.Exec(exe, os.Args, os.Environ()); err != nil {
		log.Fatalf("power: exec: %v", err)
	}
}
