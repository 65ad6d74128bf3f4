// Package udp implements the datagram ingress adapter: one UDP packet per
// frame, header-prefixed per internal/ingress's wire format.
package udp

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgrid/ledctld/internal/frame"
	"github.com/ledgrid/ledctld/internal/ingress"
	"github.com/ledgrid/ledctld/internal/mailbox"
)

// maxDatagram is the largest possible UDP datagram, so a single
// ReadFromUDP always captures a full datagram. Frames whose header and
// body exceed it cannot arrive over this transport even when their
// dimensions are within MaxDimension.
const maxDatagram = 65535

// Listener receives frames over UDP and submits them to a Mailbox.
type Listener struct {
	conn *net.UDPConn
	mbox *mailbox.Mailbox
	log  zerolog.Logger
}

// Listen binds addr (e.g. ":7777") and returns a Listener. Call Serve to
// start processing datagrams.
func Listen(addr string, mbox *mailbox.Mailbox, log zerolog.Logger) (*Listener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &Listener{conn: conn, mbox: mbox, log: log}, nil
}

// Close releases the underlying socket.
func (l *Listener) Close() error {
	return l.conn.Close()
}

// Serve reads datagrams until ctx is cancelled or the socket errors.
func (l *Listener) Serve(ctx context.Context) error {
	buf := make([]byte, maxDatagram)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}
		l.handleDatagram(buf[:n])
	}
}

func (l *Listener) handleDatagram(data []byte) {
	hdr, err := ingress.ParseHeader(data)
	if err != nil {
		l.log.Warn().Err(err).Msg("udp: dropped malformed datagram")
		return
	}

	want := ingress.HeaderLen + hdr.PayloadLen()
	if len(data) < want {
		l.log.Warn().Int("got", len(data)).Int("want", want).Msg("udp: dropped truncated datagram")
		return
	}

	f := frame.FromBytes(int(hdr.Width), int(hdr.Height), data[ingress.HeaderLen:want])
	if ok, reason := l.mbox.Submit(f); !ok {
		l.log.Debug().Str("reason", string(reason)).Msg("udp: frame rejected by mailbox")
	}
}
