// Package store persists the pedal settings.
package store

import (
	"errors"
	"fmt"
)

// Defaults.
const (
	DefaultChannel    = 1
	DefaultDeviceName = "MidiPedal"
	MaxDeviceName     = 30
)

var (
	ErrInvalidChannel = errors.New("channel out of range 1..16")
	ErrInvalidName    = fmt.Errorf("device name must be 1..%d characters", MaxDeviceName)
)

// Settings is the persisted record.
type Settings struct {
	Channel    int    `json:"channel"`
	DeviceName string `json:"device_name"`
	Paired     bool   `json:"paired"`
}

// Defaults returns the factory settings.
func Defaults() Settings {
	return Settings{Channel: DefaultChannel, DeviceName: DefaultDeviceName}
}

func validChannel(ch int) bool {
	return ch >= 1 && ch <= 16
}

func validName(name string) bool {
	return len(name) > 0 && len(name) <= MaxDeviceName
}

// sanitize replaces invalid stored values with defaults.
func (s Settings) sanitize() Settings {
	if !validChannel(s.Channel) {
		s.Channel = DefaultChannel
	}
	if !validName(s.DeviceName) {
		s.DeviceName = DefaultDeviceName
	}
	return s
}
