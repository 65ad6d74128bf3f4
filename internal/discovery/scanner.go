// Package discovery implements a LAN scan for peers advertising the UDP
// frame-ingress protocol, so operators can see which frame producers are
// reachable without hand-configuring addresses.
package discovery

import (
	"context"
	"encoding/binary"
	"net"
	"time"

	"github.com/ledgrid/ledctld/internal/ingress"
)

// probeMarker opens a discovery probe in the place the frame magic takes
// in a frame datagram, so a probe is never mistaken for a frame and the
// scanner never mistakes a real frame datagram for a discovery reply.
const probeMarker = "DISC"

// Peer is one device observed replying to a discovery probe.
type Peer struct {
	Address string
	Port    int
}

// Config controls scan behavior; mirrors Config.discovery in the
// persisted configuration document.
type Config struct {
	Enabled            bool
	ScanIntervalSecond int
	ProbeTimeout       time.Duration
}

// DefaultConfig returns the scanner's out-of-the-box behavior.
func DefaultConfig() Config {
	return Config{Enabled: true, ScanIntervalSecond: 30, ProbeTimeout: 2 * time.Second}
}

// Scanner broadcasts discovery probes on every non-loopback IPv4
// interface's subnet and collects replies.
type Scanner struct {
	cfg  Config
	port int
}

// New returns a Scanner that probes UDP port on each local subnet's
// broadcast address.
func New(cfg Config, port int) *Scanner {
	return &Scanner{cfg: cfg, port: port}
}

// Scan broadcasts one probe round across every eligible interface and
// collects replies until cfg.ProbeTimeout elapses. ctx is checked between
// replies; a cancellation while waiting for a reply is seen only once a
// reply arrives or the timeout passes.
func (s *Scanner) Scan(ctx context.Context) ([]Peer, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	probe := buildProbe()
	broadcasts, err := s.broadcastAddrs()
	if err != nil {
		return nil, err
	}
	for _, addr := range broadcasts {
		conn.WriteToUDP(probe, addr)
	}

	timeout := s.cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	deadline := time.Now().Add(timeout)
	conn.SetReadDeadline(deadline)

	var peers []Peer
	seen := make(map[string]bool)
	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return peers, ctx.Err()
		default:
		}

		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return peers, nil
			}
			return peers, err
		}

		if !isReply(buf[:n]) {
			continue
		}
		key := raddr.IP.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		peers = append(peers, Peer{Address: raddr.IP.String(), Port: s.port})
	}
}

// broadcastAddrs returns the IPv4 broadcast address of every non-loopback,
// up interface, paired with the scanner's probe port.
func (s *Scanner) broadcastAddrs() ([]*net.UDPAddr, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var out []*net.UDPAddr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok || ipNet.IP.To4() == nil {
				continue
			}
			bcast := make(net.IP, 4)
			ip4 := ipNet.IP.To4()
			mask := ipNet.Mask
			for i := range bcast {
				bcast[i] = ip4[i] | ^mask[i]
			}
			out = append(out, &net.UDPAddr{IP: bcast, Port: s.port})
		}
	}
	return out, nil
}

// buildProbe returns a datagram a peer's reply handler (see Responder)
// recognizes as a discovery probe rather than a frame.
func buildProbe() []byte {
	b := make([]byte, ingress.HeaderLen)
	copy(b, probeMarker)
	binary.BigEndian.PutUint16(b[4:6], 0)
	binary.BigEndian.PutUint16(b[6:8], 0)
	return b
}

// IsProbe reports whether data is a discovery probe, as opposed to a
// frame datagram or a reply.
func IsProbe(data []byte) bool {
	return len(data) >= len(probeMarker) && string(data[:len(probeMarker)]) == probeMarker
}

// isReply reports whether data is a discovery reply (see Responder.Serve).
func isReply(data []byte) bool {
	return len(data) >= len(replyMarker) && string(data[:len(replyMarker)]) == replyMarker
}
