//go:build !windows

package ovsdb

import "net"

// DialNet opens the raw transport. OVSDB servers commonly listen on
// unix sockets ("unix", "/run/openvswitch/db.sock") or TCP.
func DialNet(network, address string) (net.Conn, error) {
	return net.Dial(network, address)
}
