package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/midi-pedal/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"volts": func(v float64) string {
		return fmt.Sprintf("%.2fV", v)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>{{.Config.DeviceName}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
pre.lcd { background: #1d3b1d; color: #9f9; padding: 8px; width: 17ch; }
.connected { color: green; }
.disconnected { color: red; }
.low { color: red; font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Config.DeviceName}}</h1>

<pre class="lcd" id="display">{{index .Display 0}}
{{index .Display 1}}</pre>

<h2>State</h2>
<table>
<tr><th>Mode</th><td id="mode">{{.Mode}}</td></tr>
<tr><th>MIDI Channel</th><td id="channel">{{.Channel}}</td></tr>
<tr><th>Bluetooth</th><td class="{{if .Connected}}connected{{else}}disconnected{{end}}">{{if .Connected}}connected{{else}}disconnected{{end}}</td></tr>
</table>

<h2>Battery</h2>
<table>
<tr><th>Level</th><td class="{{if .Battery.Low}}low{{end}}">{{.Battery.Percent}}%{{if .Battery.Critical}} (critical){{else if .Battery.Low}} (low){{end}}</td></tr>
<tr><th>Voltage</th><td>{{volts .Battery.Voltage}}</td></tr>
<tr><th>Charging</th><td>{{if .Battery.Charging}}yes{{else}}no{{end}} ({{.Config.ChargePolicy}})</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Press</th><td>{{.Counts.Press}}</td></tr>
<tr><th>Release</th><td>{{.Counts.Release}}</td></tr>
<tr><th>Long press</th><td>{{.Counts.LongPress}}</td></tr>
<tr><th>Pairing combo</th><td>{{.Counts.Pairing}}</td></tr>
<tr><th>Battery combo</th><td>{{.Counts.Battery}}</td></tr>
<tr><th>Factory reset</th><td>{{.Counts.FactoryReset}}</td></tr>
<tr><th>MIDI sent</th><td>{{.MIDI.Sent}}</td></tr>
<tr><th>MIDI dropped</th><td>{{.MIDI.Dropped}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Long press</th><td>{{.Config.LongPressMs}}ms</td></tr>
<tr><th>Sleep after</th><td>{{.Config.SleepTimeoutMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
