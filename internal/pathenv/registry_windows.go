//go:build windows

package pathenv

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const environmentKey = `Environment`

// RegistryStore reads and writes HKEY_CURRENT_USER\Environment.
type RegistryStore struct{}

// Get returns the raw (unexpanded) value of name, or "" if unset.
func (RegistryStore) Get(name string) (string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, environmentKey, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer k.Close()

	v, _, err := k.GetStringValue(name)
	if errors.Is(err, registry.ErrNotExist) {
		return "", nil
	}
	return v, err
}

// Set writes name. Values referencing %VARS% are stored as REG_EXPAND_SZ.
func (RegistryStore) Set(name, value string) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, environmentKey, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()

	if strings.Contains(value, "%") {
		return k.SetExpandStringValue(name, value)
	}
	return k.SetStringValue(name, value)
}

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procSendMessageTimeout = user32.NewProc("SendMessageTimeoutW")
)

const (
	hwndBroadcast   = 0xffff
	wmSettingChange = 0x001A
	smtoAbortIfHung = 0x0002
	broadcastWaitMs = 5000
)

// SettingChangeBroadcaster sends WM_SETTINGCHANGE("Environment") to every
// top-level window so Explorer and new shells pick up the change.
type SettingChangeBroadcaster struct{}

// Broadcast sends the message, waiting at most five seconds.
func (SettingChangeBroadcaster) Broadcast() error {
	param, err := windows.UTF16PtrFromString(environmentKey)
	if err != nil {
		return err
	}
	var result uintptr
	r, _, callErr := procSendMessageTimeout.Call(
		hwndBroadcast,
		wmSettingChange,
		0,
		uintptr(unsafe.Pointer(param)),
		smtoAbortIfHung,
		broadcastWaitMs,
		uintptr(unsafe.Pointer(&result)),
	)
	if r == 0 {
		return fmt.Errorf("SendMessageTimeout: %w", callErr)
	}
	return nil
}

// PlatformStore returns the user environment store for this OS.
func PlatformStore(home string) (Store, Broadcaster) {
	return RegistryStore{}, SettingChangeBroadcaster{}
}
