// Package ble implements the chunked ingress adapter for transports with a
// small MTU (Bluetooth LE characteristic writes): a frame arrives as a
// sequence of chunks carrying an explicit byte offset, so chunks may land
// out of order and duplicates are idempotent.
package ble

import (
	"sync"

	"github.com/ledgrid/ledctld/internal/frame"
	"github.com/ledgrid/ledctld/internal/ingress"
	"github.com/ledgrid/ledctld/internal/mailbox"
)

// Chunk is a single write from the BLE transport. Offset is the byte
// offset into the reassembled header+body buffer that Payload belongs at;
// Final marks the chunk that completes the session (the transport knows
// the total length, this package does not need to).
type Chunk struct {
	SessionID uint32
	Sequence  uint32
	Offset    int
	Final     bool
	Payload   []byte
}

// session accumulates chunks for one in-flight frame. received tracks
// which sequence numbers have already been applied so a duplicate write
// is a no-op rather than double-counting bytes.
type session struct {
	buf          []byte
	filled       int
	headerFilled int
	received     map[uint32]bool
	final        bool
}

// Reassembler reconstructs frames from chunked writes, keyed by session
// ID so multiple concurrent senders (or retries after a dropped
// connection) don't corrupt each other's buffers.
type Reassembler struct {
	mu       sync.Mutex
	mbox     *mailbox.Mailbox
	sessions map[uint32]*session
}

// New returns a Reassembler that submits completed frames to mbox.
func New(mbox *mailbox.Mailbox) *Reassembler {
	return &Reassembler{mbox: mbox, sessions: make(map[uint32]*session)}
}

// Feed applies one chunk. It returns the decoded frame once the session's
// final chunk has arrived and every byte up to the declared header length
// has been filled; otherwise it returns (nil, nil) — an incomplete
// session, missing its final chunk or with gaps, is not an error.
func (r *Reassembler) Feed(c Chunk) (*frame.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[c.SessionID]
	if !ok {
		s = &session{received: make(map[uint32]bool)}
		r.sessions[c.SessionID] = s
	}

	if s.received[c.Sequence] {
		return nil, nil
	}

	end := c.Offset + len(c.Payload)
	if end > len(s.buf) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[c.Offset:end], c.Payload)
	s.filled += len(c.Payload)
	if c.Offset < ingress.HeaderLen {
		s.headerFilled += min(end, ingress.HeaderLen) - c.Offset
	}
	s.received[c.Sequence] = true

	if c.Final {
		s.final = true
	}

	// The final chunk may land before the chunks carrying the header; the
	// header is only parsed once all of its bytes have been written.
	if !s.final || s.headerFilled < ingress.HeaderLen {
		return nil, nil
	}

	hdr, err := ingress.ParseHeader(s.buf)
	if err != nil {
		delete(r.sessions, c.SessionID)
		return nil, err
	}

	want := ingress.HeaderLen + hdr.PayloadLen()
	if s.filled < want {
		// Final chunk arrived but a byte range within [0, want) is still
		// unwritten — either earlier chunks haven't landed yet or the
		// sender's declared length disagrees with what was actually sent.
		// len(s.buf) alone can't detect this: a high-offset final chunk
		// grows the slice to cover the whole range without having filled
		// the bytes a missing middle chunk would own. Keep waiting rather
		// than emitting a partial frame.
		return nil, nil
	}

	f := frame.FromBytes(int(hdr.Width), int(hdr.Height), s.buf[ingress.HeaderLen:want])
	delete(r.sessions, c.SessionID)

	r.mbox.Submit(f)
	return f, nil
}

// Pending reports whether a session is mid-reassembly (for tests and
// diagnostics).
func (r *Reassembler) Pending(sessionID uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[sessionID]
	return ok
}
