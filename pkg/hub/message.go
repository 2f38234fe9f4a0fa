// Package hub fans JSON messages out to websocket clients. Each hub keeps a
// short backlog that is replayed to clients as they connect, so a new viewer
// sees the current scene (or recent events) without waiting for the next frame.
package hub

// Message is one broadcast payload. Seq is assigned by the hub in broadcast
// order, starting at 1.
type Message struct {
	Seq  uint64
	Data []byte
}

// backlog is a fixed-size ring of the most recent messages.
type backlog struct {
	buf  []Message
	next int
	full bool
}

func newBacklog(size int) *backlog {
	if size < 0 {
		size = 0
	}
	return &backlog{buf: make([]Message, size)}
}

func (b *backlog) add(m Message) {
	if len(b.buf) == 0 {
		return
	}
	b.buf[b.next] = m
	b.next = (b.next + 1) % len(b.buf)
	if b.next == 0 {
		b.full = true
	}
}

// messages returns the backlog oldest first.
func (b *backlog) messages() []Message {
	if !b.full {
		return append([]Message(nil), b.buf[:b.next]...)
	}
	out := make([]Message, 0, len(b.buf))
	out = append(out, b.buf[b.next:]...)
	return append(out, b.buf[:b.next]...)
}
