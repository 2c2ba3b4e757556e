//go:build !windows

package accept

import "golang.org/x/sys/unix"

// setSocketOptions sets SO_REUSEADDR and SO_REUSEPORT on the listening
// socket so a restarted runtime can rebind its acceptor port without
// waiting out TIME_WAIT.
func setSocketOptions(fd uintptr) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return err
	}
	// Best-effort: SO_REUSEPORT semantics differ enough across unix
	// variants that failure here should not block startup.
	_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	return nil
}
