package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/midi-pedal/internal/gesture"
	"github.com/sweeney/midi-pedal/internal/mode"
)

var ts = time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC)

func TestFormatPayload(t *testing.T) {
	event := Event{
		Timestamp: ts,
		Gesture:   gesture.ButtonEvent{Type: gesture.EventPress, Switch: 3},
		Mode:      mode.ChannelDisplay,
		Channel:   10,
		Connected: true,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"pedal":{"timestamp":"2026-02-02T22:18:12Z","event":"PRESS","switch":3,"mode":"CHANNEL","channel":10,"connected":true}}`
	if string(payload) != expected {
		t.Errorf("payload mismatch:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadEventTypes(t *testing.T) {
	tests := []struct {
		eventType gesture.EventType
		want      string
	}{
		{gesture.EventPress, "PRESS"},
		{gesture.EventRelease, "RELEASE"},
		{gesture.EventLongPress, "LONG_PRESS"},
		{gesture.EventComboPairing, "COMBO_PAIRING"},
		{gesture.EventComboBattery, "COMBO_BATTERY"},
		{gesture.EventComboFactoryReset, "COMBO_FACTORY_RESET"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			payload, err := FormatPayload(Event{Timestamp: ts, Gesture: gesture.ButtonEvent{Type: tt.eventType, Switch: 1}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var parsed Payload
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if parsed.Pedal.Event != tt.want {
				t.Errorf("event: got %s, want %s", parsed.Pedal.Event, tt.want)
			}
		})
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	event := Event{Timestamp: time.Date(2026, 2, 3, 1, 0, 0, 0, loc)}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatal(err)
	}
	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.Pedal.Timestamp != "2026-02-02T23:00:00Z" {
		t.Errorf("timestamp = %s", parsed.Pedal.Timestamp)
	}
}

func TestFormatDisplayPayload(t *testing.T) {
	payload, err := FormatDisplayPayload(Display{Timestamp: ts, Lines: [2]string{"CH:01 BT:ON  85%", "Ready"}})
	if err != nil {
		t.Fatal(err)
	}
	expected := `{"display":{"timestamp":"2026-02-02T22:18:12Z","lines":["CH:01 BT:ON  85%","Ready"]}}`
	if string(payload) != expected {
		t.Errorf("payload mismatch:\ngot:  %s\nwant: %s", payload, expected)
	}

	payload, _ = FormatDisplayPayload(Display{Timestamp: ts, Lines: [2]string{"FACTORY RESET", ""}, Transient: true})
	var parsed DisplayPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatal(err)
	}
	if !parsed.Display.Transient {
		t.Error("transient flag lost")
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{Timestamp: ts, Event: "SHUTDOWN", Reason: "SIGTERM"})
	if err != nil {
		t.Fatal(err)
	}
	expected := `{"system":{"timestamp":"2026-02-02T22:18:12Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("payload mismatch:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	payload, _ := FormatSystemPayload(SystemEvent{Timestamp: ts, Event: "STARTUP"})
	expected := `{"system":{"timestamp":"2026-02-02T22:18:12Z","event":"STARTUP"}}`
	if string(payload) != expected {
		t.Errorf("got %s", payload)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"system":{"event":"HEARTBEAT"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "IGNORED", RawPayload: raw})
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != string(raw) {
		t.Errorf("got %s", payload)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	var parsed SystemPayload
	if err := json.Unmarshal(WillPayload(ts), &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.System.Event != "OFFLINE" || parsed.System.Reason == "" {
		t.Errorf("will = %+v", parsed.System)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()
	ev := Event{Timestamp: ts, Gesture: gesture.ButtonEvent{Type: gesture.EventPress, Switch: 1}}
	if err := f.Publish(ev); err != nil {
		t.Fatal(err)
	}
	if err := f.PublishSystem(SystemEvent{Timestamp: ts, Event: "STARTUP", Retained: true}); err != nil {
		t.Fatal(err)
	}
	if err := f.PublishDisplay(Display{Timestamp: ts}); err != nil {
		t.Fatal(err)
	}

	if len(f.Events) != 1 || f.Events[0] != ev {
		t.Errorf("events = %v", f.Events)
	}
	if len(f.SystemEvents) != 1 || !f.SystemEvents[0].Retained || len(f.SystemPayloads) != 1 {
		t.Errorf("system = %v", f.SystemEvents)
	}
	if len(f.Displays) != 1 {
		t.Errorf("displays = %v", f.Displays)
	}

	if err := f.Close(); err != nil || !f.Closed {
		t.Errorf("Close: err=%v closed=%v", err, f.Closed)
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	if err := f.Publish(Event{}); err == nil {
		t.Error("expected Publish error")
	}
	if err := f.PublishSystem(SystemEvent{}); err == nil {
		t.Error("expected PublishSystem error")
	}
	if err := f.PublishDisplay(Display{}); err == nil {
		t.Error("expected PublishDisplay error")
	}
	if len(f.Events) != 0 {
		t.Error("failed publish was recorded")
	}
}

func TestFakePublisherClose(t *testing.T) {
	f := NewFakePublisher()
	if f.Closed {
		t.Error("should not be closed initially")
	}
	f.Close()
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestDisplaySink(t *testing.T) {
	f := NewFakePublisher()
	s := NewDisplaySink(f, func() time.Time { return ts })

	frame := mode.Frame{Mode: mode.Pairing, Channel: 1, BlinkOn: true}
	_ = s.Render(frame)
	frame.BlinkOn = false
	_ = s.Render(frame)
	if len(f.Displays) != 1 {
		t.Fatalf("blink republished: %d displays", len(f.Displays))
	}
	if f.Displays[0].Lines[1] != "Pairing..." {
		t.Errorf("lines = %q", f.Displays[0].Lines)
	}

	_ = s.ShowMessage("MIDI Sent:\nCC1 CH:01")
	_ = s.Render(frame)
	if len(f.Displays) != 3 {
		t.Fatalf("displays = %d, want 3", len(f.Displays))
	}
	if !f.Displays[1].Transient || f.Displays[1].Lines[0] != "MIDI Sent:" {
		t.Errorf("message display = %+v", f.Displays[1])
	}
	if f.Displays[2].Transient {
		t.Error("frame after message marked transient")
	}

	_ = s.Render(mode.Frame{Mode: mode.ChannelDisplay, Channel: 1, Connected: true})
	if len(f.Displays) != 4 {
		t.Errorf("mode change not published")
	}
}
