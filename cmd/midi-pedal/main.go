// Command midi-pedal runs the six-switch BLE-MIDI foot controller.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/midi-pedal/internal/battery"
	"github.com/sweeney/midi-pedal/internal/ble"
	"github.com/sweeney/midi-pedal/internal/display"
	"github.com/sweeney/midi-pedal/internal/gesture"
	"github.com/sweeney/midi-pedal/internal/hw"
	"github.com/sweeney/midi-pedal/internal/mode"
	"github.com/sweeney/midi-pedal/internal/mqtt"
	"github.com/sweeney/midi-pedal/internal/pedal"
	"github.com/sweeney/midi-pedal/internal/status"
	"github.com/sweeney/midi-pedal/internal/store"
	"github.com/sweeney/midi-pedal/internal/web"
)

// options holds the parsed command line.
type options struct {
	poll         time.Duration
	debounce     time.Duration
	longPress    time.Duration
	sleepTimeout time.Duration
	batteryEvery time.Duration
	chargePolicy string
	heartbeat    time.Duration
	timestamps   bool
	ccNumbers    string

	pins       hw.Pins
	pinList    string
	configPath string
	deviceName string
	adapter    string

	broker     string
	httpAddr   string
	serialPort string
	serialBaud int
	console    bool
	printState bool
}

func main() {
	def := pedal.DefaultConfig()
	var o options
	o.pins = hw.DefaultPins()

	flag.DurationVar(&o.poll, "poll", 10*time.Millisecond, "Switch polling interval")
	flag.DurationVar(&o.debounce, "debounce", def.Gesture.Debounce, "Debounce duration")
	flag.DurationVar(&o.longPress, "long-press", def.Gesture.LongPress, "Long press duration")
	flag.DurationVar(&o.sleepTimeout, "sleep-timeout", def.Mode.SleepTimeout, "Idle time before sleeping while disconnected")
	flag.DurationVar(&o.batteryEvery, "battery-interval", def.Battery.Interval, "Battery sampling interval")
	flag.StringVar(&o.chargePolicy, "charge-policy", "auto", `Charge detection: "auto", "pin" or "heuristic"`)
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.BoolVar(&o.timestamps, "timestamps", false, "Send real BLE-MIDI timestamps")
	flag.StringVar(&o.ccNumbers, "cc", "1,2,3,4,5,6", "Controller numbers for switches 1-6")

	flag.StringVar(&o.pins.Chip, "chip", o.pins.Chip, "GPIO chip")
	flag.StringVar(&o.pinList, "pins", joinInts(o.pins.Switches[:]), "BCM pins for switches 1-6")
	flag.IntVar(&o.pins.Charge, "pin-charge", o.pins.Charge, "BCM pin of the charger status output (-1 if not fitted)")
	flag.StringVar(&o.pins.ADC, "adc", o.pins.ADC, "IIO sysfs file of the battery sense channel")
	flag.StringVar(&o.configPath, "config", "/var/lib/midi-pedal/settings.json", "Settings file")
	flag.StringVar(&o.deviceName, "name", "", "Advertised device name (stored; empty keeps the stored name)")
	flag.StringVar(&o.adapter, "adapter", ble.DefaultAdapter, "BlueZ adapter object path")

	flag.StringVar(&o.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&o.serialPort, "serial", "", "Serial port of the character display (empty to disable)")
	flag.IntVar(&o.serialBaud, "baud", 9600, "Serial display baud rate")
	flag.BoolVar(&o.console, "console", false, "Draw the display on stdout")
	flag.BoolVar(&o.printState, "print-state", false, "Print switch and battery state and exit")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	cfg, err := buildConfig(o)
	if err != nil {
		return err
	}
	if o.pins.Switches, err = parsePins(o.pinList); err != nil {
		return err
	}

	// Initialize GPIO and ADC
	reader, err := hw.NewRealReader(o.pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()
	sampler := reader.BatterySampler()

	if o.printState {
		return printState(os.Stdout, reader, sampler, cfg.Battery)
	}

	settings := openStore(o.configPath)
	if o.deviceName != "" {
		if err := settings.SetDeviceName(o.deviceName); err != nil {
			log.Printf("set device name: %v", err)
		}
	}

	transport, err := ble.NewBlueZ(o.adapter, settings.DeviceName())
	if err != nil {
		return fmt.Errorf("init bluetooth: %w", err)
	}
	defer transport.Close()

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	var sinks []display.Sink
	if o.broker != "" {
		p, err := mqtt.NewRealPublisher(o.broker, "midi-pedal-"+settings.DeviceName())
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
		sinks = append(sinks, mqtt.NewDisplaySink(p, time.Now))
	}

	if o.serialPort != "" {
		lcd, closer, err := display.OpenSerial(o.serialPort, o.serialBaud)
		if err != nil {
			return fmt.Errorf("open display: %w", err)
		}
		defer closer.Close()
		sinks = append(sinks, lcd)
	}
	if o.console {
		sinks = append(sinks, display.NewConsole(os.Stdout))
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:         o.poll.Milliseconds(),
		DebounceMs:     o.debounce.Milliseconds(),
		LongPressMs:    o.longPress.Milliseconds(),
		SleepTimeoutMs: o.sleepTimeout.Milliseconds(),
		HeartbeatMs:    o.heartbeat.Milliseconds(),
		ChargePolicy:   cfg.Battery.ChargePolicy.String(),
		DeviceName:     settings.DeviceName(),
		Broker:         o.broker,
		HTTPPort:       o.httpAddr,
	})

	// Sleep and restart re-exec the process; free the lines and the
	// bus name first.
	power := hw.NewRealPower(o.pins, func() {
		publishLifecycle(publisher, mqttStatus, tracker, "SHUTDOWN", "POWER")
		transport.Close()
		reader.Close()
		if publisher != nil {
			publisher.Close()
		}
	})

	device := pedal.New(cfg, pedal.Deps{
		Switches:   reader,
		Sampler:    sampler,
		Store:      settings,
		Transport:  transport,
		Power:      power,
		Sinks:      sinks,
		Publisher:  publisher,
		MQTTStatus: mqttStatus,
		Tracker:    tracker,
		Clock:      time.Now,
	}, time.Now())

	publishLifecycle(publisher, mqttStatus, tracker, "STARTUP", "")

	// Start HTTP status server
	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	log.Printf("started: name=%s channel=%d poll=%v debounce=%v long-press=%v broker=%q",
		settings.DeviceName(), settings.Channel(), o.poll, o.debounce, o.longPress, o.broker)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(device, publisher, mqttStatus, tracker, time.Now, ticker.C, sigCh)
}

func runLoop(device *pedal.Device, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			publishLifecycle(publisher, mqttStatus, tracker, "SHUTDOWN", signalName)
			return nil

		case <-tick:
			device.Tick(now())
		}
	}
}

// publishLifecycle publishes a retained STARTUP or SHUTDOWN event carrying
// the full status snapshot.
func publishLifecycle(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, event, reason string) {
	if publisher == nil {
		return
	}
	ev := mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     event,
		Reason:    reason,
		Retained:  true,
	}
	if tracker != nil {
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		snap := tracker.Snapshot()
		ev.Timestamp = snap.Now
		ev.RawPayload = status.FormatStatusEvent(snap, event, reason)
	}
	if err := publisher.PublishSystem(ev); err != nil {
		log.Printf("failed to publish %s event: %v", strings.ToLower(event), err)
	} else {
		log.Printf("published %s event", strings.ToLower(event))
	}
}

// openStore opens the settings file, falling back to volatile settings
// when it cannot be used.
func openStore(path string) mode.ConfigStore {
	f, err := store.OpenFile(path)
	if err != nil {
		log.Printf("settings: %v; using defaults for this session", err)
		return store.NewMemory(store.Defaults())
	}
	return f
}

func buildConfig(o options) (pedal.Config, error) {
	cfg := pedal.DefaultConfig()
	cfg.Gesture.Debounce = o.debounce
	cfg.Gesture.LongPress = o.longPress
	cfg.Mode.SleepTimeout = o.sleepTimeout
	cfg.Battery.Interval = o.batteryEvery
	cfg.Heartbeat = o.heartbeat
	cfg.Timestamps = o.timestamps

	policy, err := battery.ParseChargePolicy(o.chargePolicy)
	if err != nil {
		return cfg, err
	}
	cfg.Battery.ChargePolicy = policy

	cc, err := parseCCNumbers(o.ccNumbers)
	if err != nil {
		return cfg, err
	}
	cfg.Mode.CCNumbers = cc
	return cfg, nil
}

// parseCCNumbers parses a comma-separated list of six controller numbers.
func parseCCNumbers(s string) ([gesture.NumSwitches]uint8, error) {
	var out [gesture.NumSwitches]uint8
	vals, err := parseList(s)
	if err != nil {
		return out, fmt.Errorf("cc: %w", err)
	}
	for i, v := range vals {
		if v < 0 || v > 127 {
			return out, fmt.Errorf("cc: controller %d out of range", v)
		}
		out[i] = uint8(v)
	}
	return out, nil
}

// parsePins parses a comma-separated list of six BCM pin numbers.
func parsePins(s string) ([gesture.NumSwitches]int, error) {
	var out [gesture.NumSwitches]int
	vals, err := parseList(s)
	if err != nil {
		return out, fmt.Errorf("pins: %w", err)
	}
	copy(out[:], vals)
	return out, nil
}

func parseList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != gesture.NumSwitches {
		return nil, fmt.Errorf("want %d values, got %d", gesture.NumSwitches, len(parts))
	}
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func printState(w io.Writer, reader pedal.SwitchReader, sampler battery.Sampler, cfg battery.Config) error {
	levels, err := reader.ReadSwitches()
	if err != nil {
		return fmt.Errorf("read switches: %w", err)
	}
	raw, err := sampler.ReadRawVoltage()
	if err != nil {
		return fmt.Errorf("read battery: %w", err)
	}
	for i, pressed := range levels {
		fmt.Fprintf(w, "SW%d: %s\n", i+1, stateString(pressed))
	}
	v := battery.VoltageFromRaw(raw, cfg)
	fmt.Fprintf(w, "BAT: %.2fV (%d%%)\n", v, battery.Percent(v))
	return nil
}

func stateString(pressed bool) string {
	if pressed {
		return "DOWN"
	}
	return "UP"
}
