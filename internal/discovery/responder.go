package discovery

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// replyMarker opens a discovery reply datagram.
const replyMarker = "DACK"

// Responder listens for discovery probes and answers each one with a
// reply datagram, so a Scanner on another host learns this device is
// present. It is the advertising half of discovery; a given deployment
// runs a Responder on the frame producer and a Scanner on the operator
// side (or both, for peer visibility).
type Responder struct {
	conn *net.UDPConn
	log  zerolog.Logger
}

// Listen binds port to answer discovery probes.
func Listen(port int, log zerolog.Logger) (*Responder, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, err
	}
	return &Responder{conn: conn, log: log}, nil
}

// Close releases the underlying socket.
func (r *Responder) Close() error {
	return r.conn.Close()
}

// Serve answers probes until ctx is cancelled or the socket errors.
func (r *Responder) Serve(ctx context.Context) error {
	buf := make([]byte, 64)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, raddr, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return err
		}

		if !IsProbe(buf[:n]) {
			continue
		}
		if _, err := r.conn.WriteToUDP([]byte(replyMarker), raddr); err != nil {
			r.log.Warn().Err(err).Msg("discovery: failed to answer probe")
		}
	}
}
