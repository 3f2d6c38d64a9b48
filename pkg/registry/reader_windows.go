//go:build windows
// +build windows

package registry

import (
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

var platformKeys = map[Root]registry.Key{
	ClassesRoot:     registry.CLASSES_ROOT,
	CurrentUser:     registry.CURRENT_USER,
	LocalMachine:    registry.LOCAL_MACHINE,
	Users:           registry.USERS,
	CurrentConfig:   registry.CURRENT_CONFIG,
	DynData:         registry.Key(windows.HKEY_DYN_DATA),
	PerformanceData: registry.PERFORMANCE_DATA,
}

func platformReader(root Root, subkey, name string) (string, bool) {
	rootKey, ok := platformKeys[root]
	if !ok {
		return "", false
	}

	k, err := registry.OpenKey(rootKey, subkey, registry.QUERY_VALUE)
	if err != nil {
		return "", false
	}
	defer k.Close()

	value, _, err := k.GetStringValue(name)
	if err != nil {
		return "", false
	}

	return value, true
}
