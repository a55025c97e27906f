package lkserver

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// openListenSocket mirrors lk_open_listen_socket from the original C
// implementation: a non-blocking, SO_REUSEADDR TCP listener bound to
// host:port with the given backlog.
func openListenSocket(host string, port, backlog int) (int, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return -1, fmt.Errorf("resolve listen host %q: %w", host, err)
		}
		ip = ips[0]
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return -1, fmt.Errorf("listen host %q is not IPv4", host)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}

	addr := &unix.SockaddrInet4{Port: port}
	copy(addr.Addr[:], ip4)
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}
