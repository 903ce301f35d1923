// Package ble provides the BLE-MIDI peripheral link.
package ble

import "errors"

// BLE-MIDI GATT identifiers.
const (
	ServiceUUID = "03b80e5a-ede8-4b33-a751-6ce34ec4c700"
	CharUUID    = "7772e5db-3868-4112-a1a9-f2669d106bf3"
)

// ErrNotConnected is returned by Send when no central is connected.
var ErrNotConnected = errors.New("ble: not connected")

// Transport is a BLE-MIDI peripheral.
type Transport interface {
	// Send notifies the connected central with one packet.
	Send(packet []byte) error
	IsConnected() bool
	// OnConnectionChanged registers fn, called from the transport's own
	// goroutine on every connection change.
	OnConnectionChanged(fn func(connected bool))
	StartAdvertising() error
	Disconnect() error
}
