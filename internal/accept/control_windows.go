//go:build windows

package accept

import "syscall"

// setSocketOptions sets SO_REUSEADDR on Windows, which has no SO_REUSEPORT
// equivalent.
func setSocketOptions(fd uintptr) error {
	return syscall.SetsockoptInt(syscall.Handle(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
}
