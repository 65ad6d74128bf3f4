package pipe

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ledgrid/ledctld/internal/ingress"
	"github.com/ledgrid/ledctld/internal/mailbox"
)

func framed(w, h uint16, body []byte) []byte {
	b := make([]byte, ingress.HeaderLen)
	copy(b, ingress.Magic)
	binary.BigEndian.PutUint16(b[4:6], w)
	binary.BigEndian.PutUint16(b[6:8], h)
	return append(b, body...)
}

func TestRunSubmitsSequentialFrames(t *testing.T) {
	mbox := mailbox.New(1, 1)
	var stream bytes.Buffer
	stream.Write(framed(1, 1, []byte{1, 2, 3}))
	stream.Write(framed(1, 1, []byte{4, 5, 6}))

	r := New(&stream, mbox, zerolog.Nop())
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	f, _, ok := mbox.Take()
	if !ok {
		t.Fatal("Take() ok = false, want the latest submitted frame")
	}
	if got := f.At(0, 0); got.R != 4 || got.G != 5 || got.B != 6 {
		t.Errorf("At(0,0) = %v, want the second frame's pixel {4 5 6}", got)
	}
}

func TestRunStopsCleanlyAtEOF(t *testing.T) {
	mbox := mailbox.New(1, 1)
	stream := bytes.NewReader(framed(1, 1, []byte{9, 9, 9}))

	r := New(stream, mbox, zerolog.Nop())
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil at clean EOF", err)
	}
}

func TestRunReturnsErrorOnMalformedHeader(t *testing.T) {
	mbox := mailbox.New(1, 1)
	stream := bytes.NewReader([]byte("XXXXXXXX"))

	r := New(stream, mbox, zerolog.Nop())
	if err := r.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, want an error for a bad magic header")
	}
}

func TestRunTreatsTruncatedBodyAsCleanStop(t *testing.T) {
	mbox := mailbox.New(2, 2)
	// Header claims a 2x2 frame (12 body bytes) but the stream ends after 3.
	stream := bytes.NewReader(framed(2, 2, []byte{1, 2, 3}))

	r := New(stream, mbox, zerolog.Nop())
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil for a stream cut mid-frame", err)
	}
	if _, _, ok := mbox.Take(); ok {
		t.Error("Take() ok = true, want nothing submitted for a truncated body")
	}
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	mbox := mailbox.New(1, 1)
	stream := bytes.NewReader(framed(1, 1, []byte{1, 2, 3}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(stream, mbox, zerolog.Nop())
	if err := r.Run(ctx); err == nil {
		t.Error("Run() error = nil, want context.Canceled")
	}
}

func TestRunDimensionMismatchIsRejectedByMailbox(t *testing.T) {
	mbox := mailbox.New(4, 4)
	stream := bytes.NewReader(framed(1, 1, []byte{1, 2, 3}))

	r := New(stream, mbox, zerolog.Nop())
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, _, ok := mbox.Take(); ok {
		t.Error("Take() ok = true, want mailbox to reject the dimension mismatch")
	}
}
