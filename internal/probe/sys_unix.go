//go:build unix

package probe

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// osMajorVersion returns the kernel release major number.
func osMajorVersion() (int, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return 0, err
	}
	release := unix.ByteSliceToString(u.Release[:])
	return parseMajor(release)
}

func parseMajor(release string) (int, error) {
	head, _, _ := strings.Cut(strings.TrimSpace(release), ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("unparsable release %q", release)
	}
	return major, nil
}
