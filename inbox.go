package smtgrid

import "github.com/gtofzz/smtgrid/packet"

// Inbox accumulates the raw bytes read from one session socket and
// splits complete frames off the front. Network reads land here in
// whatever fragments TCP produced; Next reassembles frame boundaries so
// the decoder always sees whole packets.
//
// An Inbox is owned by its session's serve goroutine and needs no
// locking. Invariant: between dispatches it holds at most one partial
// frame prefix — every complete frame has been consumed.
type Inbox struct {
	buf []byte
}

// Append adds freshly read bytes to the tail.
func (in *Inbox) Append(b []byte) {
	in.buf = append(in.buf, b...)
}

// Next splits one complete frame off the front, leaving the tail
// buffered. It returns packet.ErrIncompleteFrame without consuming
// anything when only a partial frame remains, and passes through the
// decode error of a Remaining Length that cannot be parsed.
func (in *Inbox) Next() ([]byte, error) {
	frame, rest, err := packet.Split(in.buf)
	if err != nil {
		return nil, err
	}
	in.buf = rest
	return frame, nil
}

// Reset discards everything buffered. Used when a malformed Remaining
// Length makes the next frame boundary unknowable.
func (in *Inbox) Reset() {
	in.buf = nil
}

// Len reports the number of buffered bytes.
func (in *Inbox) Len() int {
	return len(in.buf)
}
