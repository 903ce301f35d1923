package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Mode          string      `json:"mode"`
	Channel       int         `json:"channel"`
	BLEConnected  bool        `json:"ble_connected"`
	Battery       BatteryJSON `json:"battery"`
	Display       []string    `json:"display"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Counts        CountsJSON  `json:"event_counts"`
	MIDI          MIDIJSON    `json:"midi"`
	Config        ConfigJSON  `json:"config"`
}

// BatteryJSON is the JSON representation of the battery estimate.
type BatteryJSON struct {
	Voltage  float64 `json:"voltage"`
	Percent  int     `json:"percent"`
	Charging bool    `json:"charging"`
	Low      bool    `json:"low"`
	Critical bool    `json:"critical"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of gesture counts.
type CountsJSON struct {
	Press        int `json:"press"`
	Release      int `json:"release"`
	LongPress    int `json:"long_press"`
	Pairing      int `json:"combo_pairing"`
	Battery      int `json:"combo_battery"`
	FactoryReset int `json:"combo_factory_reset"`
}

// MIDIJSON is the JSON representation of encoder counts.
type MIDIJSON struct {
	Sent    int `json:"sent"`
	Dropped int `json:"dropped"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs         int64  `json:"poll_ms"`
	DebounceMs     int64  `json:"debounce_ms"`
	LongPressMs    int64  `json:"long_press_ms"`
	SleepTimeoutMs int64  `json:"sleep_timeout_ms"`
	HeartbeatMs    int64  `json:"heartbeat_ms"`
	ChargePolicy   string `json:"charge_policy"`
	DeviceName     string `json:"device_name"`
	Broker         string `json:"broker"`
	HTTPPort       string `json:"http_port"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Mode:         snap.Mode.String(),
		Channel:      snap.Channel,
		BLEConnected: snap.Connected,
		Battery: BatteryJSON{
			Voltage:  math.Round(snap.Battery.Voltage*100) / 100,
			Percent:  snap.Battery.Percent,
			Charging: snap.Battery.Charging,
			Low:      snap.Battery.Low,
			Critical: snap.Battery.Critical,
		},
		Display:       []string{snap.Display[0], snap.Display[1]},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Press:        snap.Counts.Press,
			Release:      snap.Counts.Release,
			LongPress:    snap.Counts.LongPress,
			Pairing:      snap.Counts.Pairing,
			Battery:      snap.Counts.Battery,
			FactoryReset: snap.Counts.FactoryReset,
		},
		MIDI: MIDIJSON{Sent: snap.MIDI.Sent, Dropped: snap.MIDI.Dropped},
		Config: ConfigJSON{
			PollMs:         snap.Config.PollMs,
			DebounceMs:     snap.Config.DebounceMs,
			LongPressMs:    snap.Config.LongPressMs,
			SleepTimeoutMs: snap.Config.SleepTimeoutMs,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			ChargePolicy:   snap.Config.ChargePolicy,
			DeviceName:     snap.Config.DeviceName,
			Broker:         snap.Config.Broker,
			HTTPPort:       snap.Config.HTTPPort,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
