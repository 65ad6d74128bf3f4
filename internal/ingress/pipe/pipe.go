// Package pipe implements the byte-stream ingress adapter for a named pipe
// or unix socket: the same header as UDP, followed by W*H*3 body bytes,
// read via a small awaiting-header / awaiting-body state machine since
// reads on a pipe may return partial data.
package pipe

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/ledgrid/ledctld/internal/frame"
	"github.com/ledgrid/ledctld/internal/ingress"
	"github.com/ledgrid/ledctld/internal/mailbox"
)

// Reader consumes a framed byte stream and submits decoded frames to a
// Mailbox.
type Reader struct {
	r    io.Reader
	mbox *mailbox.Mailbox
	log  zerolog.Logger
}

// New wraps r (a named pipe, unix socket, or any io.Reader carrying the
// same wire format).
func New(r io.Reader, mbox *mailbox.Mailbox, log zerolog.Logger) *Reader {
	return &Reader{r: r, mbox: mbox, log: log}
}

// Run reads header/body pairs until ctx is cancelled, r reaches EOF, or a
// read error occurs. EOF is treated as a clean end of stream, not a
// failure.
func (r *Reader) Run(ctx context.Context) error {
	header := make([]byte, ingress.HeaderLen)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := io.ReadFull(r.r, header); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}

		hdr, err := ingress.ParseHeader(header)
		if err != nil {
			r.log.Warn().Err(err).Msg("pipe: malformed header, dropping stream")
			return err
		}

		body := make([]byte, hdr.PayloadLen())
		if _, err := io.ReadFull(r.r, body); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}

		f := frame.FromBytes(int(hdr.Width), int(hdr.Height), body)
		if ok, reason := r.mbox.Submit(f); !ok {
			r.log.Debug().Str("reason", string(reason)).Msg("pipe: frame rejected by mailbox")
		}
	}
}
