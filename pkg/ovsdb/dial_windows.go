//go:build windows

package ovsdb

import (
	"net"

	"github.com/Microsoft/go-winio"
)

// DialNet opens the raw transport. On Windows the "winpipe" network
// connects to a named pipe, which is how ovsdb-server listens there.
func DialNet(network, address string) (net.Conn, error) {
	if network == "winpipe" {
		return winio.DialPipe(address, nil)
	}
	return net.Dial(network, address)
}
