//go:build windows

package probe

import (
	"golang.org/x/sys/windows"
)

// osMajorVersion returns the Windows major version. RtlGetVersion is not
// subject to manifest-based version lies.
func osMajorVersion() (int, error) {
	v := windows.RtlGetVersion()
	return int(v.MajorVersion), nil
}

// freeBytes returns the bytes available to the current user on dir's volume.
func freeBytes(dir string) (uint64, error) {
	p, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0, err
	}
	var avail, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p, &avail, &total, &totalFree); err != nil {
		return 0, err
	}
	return avail, nil
}
