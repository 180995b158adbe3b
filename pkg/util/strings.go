package util

import (
	"net"
	"strconv"
)

// HostPort splits "host:port". A missing or non-numeric port yields defPort;
// a bare host is returned as-is.
func HostPort(addr string, defPort int) (string, int) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, defPort
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return host, defPort
	}
	return host, p
}
