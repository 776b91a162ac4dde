package smtgrid

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gtofzz/smtgrid/packet"
)

var (
	pingFrame      = []byte{0xC0, 0x00}
	subscribeBytes = []byte{0x82, 0x09, 0x00, 0x01, 0x00, 0x04, 't', 'e', 's', 't', 0x00}
)

func TestInboxSingleFrame(t *testing.T) {
	in := &Inbox{}
	in.Append(pingFrame)
	frame, err := in.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !bytes.Equal(frame, pingFrame) {
		t.Errorf("frame = % X", frame)
	}
	if _, err := in.Next(); !errors.Is(err, packet.ErrIncompleteFrame) {
		t.Errorf("Next on empty inbox err = %v", err)
	}
	if in.Len() != 0 {
		t.Errorf("Len = %d, want 0", in.Len())
	}
}

func TestInboxCoalescedFrames(t *testing.T) {
	// Two packets arriving in one read are both extracted.
	in := &Inbox{}
	in.Append(append(append([]byte{}, subscribeBytes...), pingFrame...))

	first, err := in.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !bytes.Equal(first, subscribeBytes) {
		t.Errorf("first = % X", first)
	}
	second, err := in.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !bytes.Equal(second, pingFrame) {
		t.Errorf("second = % X", second)
	}
}

// After draining, the inbox holds fewer bytes than any complete frame:
// at most one partial prefix stays buffered.
func TestInboxPartialPrefixRemains(t *testing.T) {
	in := &Inbox{}
	in.Append(subscribeBytes)
	in.Append(subscribeBytes[:3]) // next frame cut short

	if _, err := in.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := in.Next(); !errors.Is(err, packet.ErrIncompleteFrame) {
		t.Fatalf("Next err = %v, want ErrIncompleteFrame", err)
	}
	if in.Len() != 3 {
		t.Errorf("Len = %d, want 3", in.Len())
	}

	in.Append(subscribeBytes[3:])
	frame, err := in.Next()
	if err != nil {
		t.Fatalf("Next after completing: %v", err)
	}
	if !bytes.Equal(frame, subscribeBytes) {
		t.Errorf("frame = % X", frame)
	}
}

// Byte-at-a-time delivery produces the same frame as one contiguous
// append.
func TestInboxFragmentationInvariance(t *testing.T) {
	in := &Inbox{}
	for i := range subscribeBytes {
		in.Append(subscribeBytes[i : i+1])
		if i < len(subscribeBytes)-1 {
			if _, err := in.Next(); !errors.Is(err, packet.ErrIncompleteFrame) {
				t.Fatalf("byte %d: err = %v", i, err)
			}
		}
	}
	frame, err := in.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !bytes.Equal(frame, subscribeBytes) {
		t.Errorf("frame = % X", frame)
	}
}

func TestInboxMalformedLength(t *testing.T) {
	in := &Inbox{}
	in.Append([]byte{0x30, 0xFF, 0xFF, 0xFF, 0xFF, 0x00})
	if _, err := in.Next(); !errors.Is(err, packet.ErrPacketTooLarge) {
		t.Fatalf("Next err = %v, want ErrPacketTooLarge", err)
	}
	in.Reset()
	if in.Len() != 0 {
		t.Errorf("Len = %d after Reset", in.Len())
	}
}
