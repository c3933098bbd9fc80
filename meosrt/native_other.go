//go:build !darwin && !linux

package meosrt

import (
	"fmt"
	"runtime"
)

// OpenNative is not available on this platform.
func OpenNative(path string) (*Runtime, error) {
	return nil, fmt.Errorf("meosrt: loading native libraries is not supported on %s", runtime.GOOS)
}
