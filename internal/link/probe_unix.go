//go:build linux || darwin

package link

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Alive is a best-effort, point-in-time liveness check: a non-blocking
// poll of the socket. Readable with zero pending bytes is the classic
// half-closed indicator. The authoritative signal remains the receive
// loop's disconnect event or the heartbeat timeout.
func (c *Conn) Alive() bool {
	if c.closed.Load() {
		return false
	}
	sc, ok := c.conn.(syscall.Conn)
	if !ok {
		return true
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return false
	}

	alive := true
	ctrlErr := raw.Control(func(fd uintptr) {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, 0)
		if err != nil || n == 0 {
			return
		}
		if fds[0].Revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
			alive = false
			return
		}
		if fds[0].Revents&unix.POLLIN == 0 {
			return
		}
		pending, err := unix.IoctlGetInt(int(fd), unix.FIONREAD)
		if err == nil && pending == 0 {
			alive = false
		}
	})
	if ctrlErr != nil {
		return false
	}
	return alive
}
