//go:build !unix && !windows

package probe

import (
	"errors"
	"runtime"
)

func osMajorVersion() (int, error) {
	return 0, errors.New("version probing not implemented on " + runtime.GOOS)
}
