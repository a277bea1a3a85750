package netutil

import (
	"net"
	"strconv"
)

// GetAvailablePortForAddress returns a port that's currently free on the
// specified host.
func GetAvailablePortForAddress(host string) (int, error) {
	lis, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer lis.Close()

	_, portString, err := net.SplitHostPort(lis.Addr().String())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portString)
}
