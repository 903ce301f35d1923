package ble

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
)

// DefaultAdapter is the first Bluetooth controller.
const DefaultAdapter = "/org/bluez/hci0"

const (
	busName       = "org.bluez"
	deviceIface   = "org.bluez.Device1"
	gattManager   = "org.bluez.GattManager1"
	gattService   = "org.bluez.GattService1"
	gattChar      = "org.bluez.GattCharacteristic1"
	advManager    = "org.bluez.LEAdvertisingManager1"
	advIface      = "org.bluez.LEAdvertisement1"
	objectManager = "org.freedesktop.DBus.ObjectManager"
	propsSignal   = "org.freedesktop.DBus.Properties.PropertiesChanged"
	propsIface    = "org.freedesktop.DBus.Properties"
)

const (
	appPath     = dbus.ObjectPath("/org/sweeney/pedal")
	servicePath = appPath + "/service0"
	charPath    = servicePath + "/char0"
	advertPath  = appPath + "/advertisement0"
)

// charFlags are the BLE-MIDI characteristic properties.
var charFlags = []string{"read", "write-without-response", "notify"}

// BlueZ is a BLE-MIDI GATT peripheral served through BlueZ over the
// system D-Bus.
type BlueZ struct {
	conn      *dbus.Conn
	adapter   dbus.ObjectPath
	name      string
	charProps *prop.Properties

	mu          sync.Mutex
	device      dbus.ObjectPath
	connected   bool
	advertising bool
	onChange    func(bool)
}

// NewBlueZ exports the MIDI service on adapter and registers it with
// BlueZ. name is the advertised local name.
func NewBlueZ(adapter, name string) (*BlueZ, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		conn.Close()
		return nil, fmt.Errorf("list bus names: %w", err)
	}
	found := false
	for _, n := range names {
		if n == busName {
			found = true
			break
		}
	}
	if !found {
		conn.Close()
		return nil, fmt.Errorf("org.bluez not found on system bus, is bluetooth.service running?")
	}

	b := &BlueZ{conn: conn, adapter: dbus.ObjectPath(adapter), name: name}
	if err := b.export(); err != nil {
		conn.Close()
		return nil, err
	}
	obj := conn.Object(busName, b.adapter)
	if err := obj.Call(gattManager+".RegisterApplication", 0, appPath, map[string]dbus.Variant{}).Err; err != nil {
		conn.Close()
		return nil, fmt.Errorf("register GATT application: %w", err)
	}
	go b.watch(b.subscribe())
	log.Printf("ble: MIDI service registered on %s as %q", adapter, name)
	return b, nil
}

func (b *BlueZ) export() error {
	var err error
	b.charProps, err = prop.Export(b.conn, charPath, prop.Map{gattChar: charPropMap()})
	if err != nil {
		return fmt.Errorf("export characteristic properties: %w", err)
	}
	if err := b.conn.Export(&characteristic{}, charPath, gattChar); err != nil {
		return fmt.Errorf("export characteristic: %w", err)
	}
	if _, err := prop.Export(b.conn, servicePath, prop.Map{gattService: servicePropMap()}); err != nil {
		return fmt.Errorf("export service properties: %w", err)
	}
	if err := b.conn.Export(application{}, appPath, objectManager); err != nil {
		return fmt.Errorf("export object manager: %w", err)
	}
	if _, err := prop.Export(b.conn, advertPath, prop.Map{advIface: advertPropMap(b.name)}); err != nil {
		return fmt.Errorf("export advertisement properties: %w", err)
	}
	if err := b.conn.Export(advertisement{}, advertPath, advIface); err != nil {
		return fmt.Errorf("export advertisement: %w", err)
	}
	return nil
}

func charPropMap() map[string]*prop.Prop {
	return map[string]*prop.Prop{
		"UUID":      {Value: CharUUID, Emit: prop.EmitConst},
		"Service":   {Value: servicePath, Emit: prop.EmitConst},
		"Flags":     {Value: charFlags, Emit: prop.EmitConst},
		"Value":     {Value: []byte{}, Emit: prop.EmitTrue},
		"Notifying": {Value: false, Emit: prop.EmitTrue},
	}
}

func servicePropMap() map[string]*prop.Prop {
	return map[string]*prop.Prop{
		"UUID":    {Value: ServiceUUID, Emit: prop.EmitConst},
		"Primary": {Value: true, Emit: prop.EmitConst},
	}
}

func advertPropMap(name string) map[string]*prop.Prop {
	return map[string]*prop.Prop{
		"Type":         {Value: "peripheral", Emit: prop.EmitConst},
		"ServiceUUIDs": {Value: []string{ServiceUUID}, Emit: prop.EmitConst},
		"LocalName":    {Value: name, Emit: prop.EmitConst},
	}
}

// managedObjects is the GetManagedObjects reply describing the service
// tree.
func managedObjects() map[dbus.ObjectPath]map[string]map[string]dbus.Variant {
	return map[dbus.ObjectPath]map[string]map[string]dbus.Variant{
		servicePath: {gattService: variants(servicePropMap())},
		charPath:    {gattChar: variants(charPropMap())},
	}
}

func variants(m map[string]*prop.Prop) map[string]dbus.Variant {
	out := make(map[string]dbus.Variant, len(m))
	for k, p := range m {
		out[k] = dbus.MakeVariant(p.Value)
	}
	return out
}

type application struct{}

func (application) GetManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, *dbus.Error) {
	return managedObjects(), nil
}

type advertisement struct{}

func (advertisement) Release() *dbus.Error {
	log.Printf("ble: advertisement released by BlueZ")
	return nil
}

// characteristic handles GATT calls from the central. The pedal only
// sends, so writes are dropped.
type characteristic struct{}

func (*characteristic) ReadValue(map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return []byte{}, nil
}

func (*characteristic) WriteValue([]byte, map[string]dbus.Variant) *dbus.Error {
	return nil
}

func (*characteristic) StartNotify() *dbus.Error { return nil }

func (*characteristic) StopNotify() *dbus.Error { return nil }

// Send notifies the central by updating the characteristic value.
func (b *BlueZ) Send(packet []byte) error {
	if !b.IsConnected() {
		return ErrNotConnected
	}
	b.charProps.SetMust(gattChar, "Value", append([]byte(nil), packet...))
	return nil
}

func (b *BlueZ) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *BlueZ) OnConnectionChanged(fn func(bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

// StartAdvertising registers the advertisement. Repeated calls while
// advertising are no-ops.
func (b *BlueZ) StartAdvertising() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.advertising {
		return nil
	}
	obj := b.conn.Object(busName, b.adapter)
	if err := obj.Call(advManager+".RegisterAdvertisement", 0, advertPath, map[string]dbus.Variant{}).Err; err != nil {
		return fmt.Errorf("register advertisement: %w", err)
	}
	b.advertising = true
	log.Printf("ble: advertising as %q", b.name)
	return nil
}

func (b *BlueZ) stopAdvertising() {
	if !b.advertising {
		return
	}
	obj := b.conn.Object(busName, b.adapter)
	if err := obj.Call(advManager+".UnregisterAdvertisement", 0, advertPath).Err; err != nil {
		log.Printf("ble: unregister advertisement: %v", err)
	}
	b.advertising = false
}

// Disconnect drops the connected central, if any.
func (b *BlueZ) Disconnect() error {
	b.mu.Lock()
	dev := b.device
	b.mu.Unlock()
	if dev == "" {
		return nil
	}
	if err := b.conn.Object(busName, dev).Call(deviceIface+".Disconnect", 0).Err; err != nil {
		return fmt.Errorf("disconnect %s: %w", macFromPath(b.adapter, dev), err)
	}
	return nil
}

// Close unregisters everything and closes the bus connection.
func (b *BlueZ) Close() error {
	b.mu.Lock()
	b.stopAdvertising()
	b.mu.Unlock()
	obj := b.conn.Object(busName, b.adapter)
	if err := obj.Call(gattManager+".UnregisterApplication", 0, appPath).Err; err != nil {
		log.Printf("ble: unregister application: %v", err)
	}
	return b.conn.Close()
}

func (b *BlueZ) subscribe() chan *dbus.Signal {
	b.conn.BusObject().Call(
		"org.freedesktop.DBus.AddMatch", 0,
		"type='signal',interface='"+propsIface+"',member='PropertiesChanged',path_namespace='"+string(b.adapter)+"'",
	)
	ch := make(chan *dbus.Signal, 16)
	b.conn.Signal(ch)
	return ch
}

func (b *BlueZ) watch(ch chan *dbus.Signal) {
	for sig := range ch {
		path, connected, ok := connectedChange(sig)
		if !ok {
			continue
		}
		b.handleConnected(path, connected)
	}
}

// handleConnected tracks one central at a time and reports changes.
func (b *BlueZ) handleConnected(path dbus.ObjectPath, connected bool) {
	b.mu.Lock()
	switch {
	case connected && !b.connected:
		b.device = path
		b.connected = true
		b.stopAdvertising()
	case !connected && b.connected && path == b.device:
		b.device = ""
		b.connected = false
	default:
		b.mu.Unlock()
		return
	}
	fn := b.onChange
	b.mu.Unlock()

	log.Printf("ble: central %s connected=%v", macFromPath(b.adapter, path), connected)
	if fn != nil {
		fn(connected)
	}
}

// connectedChange extracts a Device1 Connected change from a
// PropertiesChanged signal.
func connectedChange(sig *dbus.Signal) (dbus.ObjectPath, bool, bool) {
	if sig == nil || sig.Name != propsSignal || len(sig.Body) < 2 {
		return "", false, false
	}
	// Body: [interface_name string, changed_props map[string]Variant, invalidated []string]
	iface, ok := sig.Body[0].(string)
	if !ok || iface != deviceIface {
		return "", false, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return "", false, false
	}
	v, ok := changed["Connected"]
	if !ok {
		return "", false, false
	}
	connected, ok := v.Value().(bool)
	if !ok {
		return "", false, false
	}
	return sig.Path, connected, true
}

// macFromPath extracts a MAC address from a BlueZ device object path.
func macFromPath(adapter, path dbus.ObjectPath) string {
	prefix := string(adapter) + "/dev_"
	s := string(path)
	if !strings.HasPrefix(s, prefix) {
		return ""
	}
	return strings.ReplaceAll(s[len(prefix):], "_", ":")
}
