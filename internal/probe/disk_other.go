//go:build !linux && !darwin && !freebsd && !windows

package probe

import (
	"fmt"
	"runtime"
)

// Statfs_t has no portable Bavail/Bsize pair outside linux, darwin and freebsd.
func freeBytes(dir string) (uint64, error) {
	return 0, fmt.Errorf("%w on %s", errSpaceUnmeasurable, runtime.GOOS)
}
