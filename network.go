package main

import (
	"errors"
	"net"
	"strings"
)

const (
	wildcardIPv4 = "0.0.0.0"
	// Nothing is sent to this address; dialing UDP only asks the kernel for a route.
	outboundProbeAddr = "8.8.8.8:80"
)

// getAvailablePort asks the OS for a free TCP port and releases it right away.
// Someone else may grab it before we bind again; listenWithRetry covers that.
func getAvailablePort() (int, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(wildcardIPv4, "0"))
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

// getLocalIP is the LAN address other devices should use to reach this host.
// It never fails: the last resort is the wildcard address.
func getLocalIP() string {
	return resolveLocalIP(probeOutboundIP, getLocalIPv4)
}

func resolveLocalIP(probe, fallback func() (string, error)) string {
	if ip, err := probe(); err == nil && ip != "" {
		return ip
	}
	if ip, err := fallback(); err == nil && ip != "" {
		return ip
	}
	return wildcardIPv4
}

// probeOutboundIP reports the source address the kernel would pick for
// traffic to the internet.
func probeOutboundIP() (string, error) {
	conn, err := net.Dial("udp", outboundProbeAddr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil || addr.IP.IsUnspecified() {
		return "", errors.New("no usable outbound address")
	}
	if ip4 := addr.IP.To4(); ip4 != nil {
		return ip4.String(), nil
	}
	return addr.IP.String(), nil
}

var virtualInterfaceKeywords = []string{
	"radmin",
	"vpn",
	"virtualbox",
	"vmware",
	"hyper-v",
	"wintun",
	"wireguard",
	"tailscale",
	"zerotier",
	"hamachi",
	"tap",
	"tun",
	"utun",
	"docker",
	"veth",
	"br-",
	"loopback",
}

func isRFC1918(ip4 net.IP) bool {
	switch {
	case ip4[0] == 10:
		return true
	case ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31:
		return true
	default:
		return ip4[0] == 192 && ip4[1] == 168
	}
}

// scoreInterfaceAddr ranks an IPv4 address by how likely it is to be the
// one phones on the same Wi-Fi can reach. ok is false for addresses that are
// never useful.
func scoreInterfaceAddr(ifName string, flags net.Flags, ip net.IP) (score int, ok bool) {
	ip4 := ip.To4()
	if ip4 == nil || ip4.IsLoopback() || ip4.IsLinkLocalUnicast() {
		return 0, false
	}

	name := strings.ToLower(ifName)
	if isRFC1918(ip4) {
		score += 100
	}
	if ip4[0] == 192 && ip4[1] == 168 {
		score += 5
		// VirtualBox host-only default.
		if ip4[2] == 56 {
			score -= 50
		}
	}
	for _, k := range []string{"wlan", "wi-fi", "wifi", "wireless", "wlp"} {
		if strings.Contains(name, k) {
			score += 40
			break
		}
	}
	if strings.Contains(name, "ethernet") || strings.HasPrefix(name, "eth") || strings.HasPrefix(name, "en") {
		score += 5
	}
	if flags&net.FlagPointToPoint != 0 {
		score -= 200
	}
	for _, k := range virtualInterfaceKeywords {
		if strings.Contains(name, k) {
			score -= 1000
			break
		}
	}
	return score, true
}

// getLocalIPv4 walks the interfaces and returns the best scoring address.
func getLocalIPv4() (string, error) {
	ifs, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	var (
		best      net.IP
		bestScore int
	)
	for _, iface := range ifs {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			default:
				continue
			}
			score, ok := scoreInterfaceAddr(iface.Name, iface.Flags, ip)
			if !ok {
				continue
			}
			if best == nil || score > bestScore {
				best, bestScore = ip.To4(), score
			}
		}
	}

	if best == nil {
		return "", errors.New("no usable IPv4 address")
	}
	return best.String(), nil
}
