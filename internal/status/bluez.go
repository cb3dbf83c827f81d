package status

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/godbus/dbus/v5"
)

const (
	bluezService  = "org.bluez"
	bluezAdapter  = "org.bluez.Adapter1"
	objectManager = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
)

// ErrNoAdapter is returned when BlueZ exposes no adapter.
var ErrNoAdapter = errors.New("no bluetooth adapter")

// BlueZ queries the first BlueZ adapter on the system bus.
type BlueZ struct {
	// Conn overrides the system bus connection.
	Conn *dbus.Conn
}

// Powered reads org.bluez.Adapter1.Powered of the first adapter.
func (b BlueZ) Powered(ctx context.Context) (bool, error) {
	conn := b.Conn
	if conn == nil {
		var err error
		conn, err = dbus.SystemBus()
		if err != nil {
			return false, fmt.Errorf("failed to connect to system bus: %w", err)
		}
	}

	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	call := conn.Object(bluezService, "/").CallWithContext(ctx, objectManager, 0)
	if err := call.Store(&objects); err != nil {
		return false, fmt.Errorf("failed to list bluez objects: %w", err)
	}
	return adapterPowered(objects)
}

func adapterPowered(objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant) (bool, error) {
	paths := make([]string, 0, len(objects))
	for p := range objects {
		paths = append(paths, string(p))
	}
	sort.Strings(paths)

	for _, p := range paths {
		props, ok := objects[dbus.ObjectPath(p)][bluezAdapter]
		if !ok {
			continue
		}
		v, ok := props["Powered"]
		if !ok {
			return false, fmt.Errorf("adapter %s has no Powered property", p)
		}
		powered, ok := v.Value().(bool)
		if !ok {
			return false, fmt.Errorf("adapter %s: unexpected Powered type %s", p, v.Signature())
		}
		return powered, nil
	}
	return false, ErrNoAdapter
}
