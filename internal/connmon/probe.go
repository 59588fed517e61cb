package connmon

import "net"

// NetProbe detects transport by enumerating interface addresses. It has no
// change notifications; the monitor's poll loop fills that gap.
type NetProbe struct{}

func (NetProbe) HasTransport() bool {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ipNet.IP.IsLoopback() || ipNet.IP.IsLinkLocalUnicast() {
			continue
		}
		return true
	}
	return false
}

func (NetProbe) Changes() <-chan bool { return nil }
