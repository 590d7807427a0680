// Package weird models Zeek-style "weird" notices: non-fatal anomalies
// encountered while parsing a packet (spec.md §7: truncated_header,
// internally_truncated_header). It is deliberately shaped like package
// events rather than reusing it, since weirds are a distinct contract
// with the script layer from regular events.
package weird

// Notice is one anomaly observation.
type Notice struct {
	Name    string
	ConnKey string
}

// Sink receives weird notices. A nil Sink means nobody is listening.
type Sink interface {
	Report(n Notice)
}

// Channel is a bounded, non-blocking Sink, mirroring events.Channel.
type Channel struct {
	ch chan Notice
}

func NewChannel(capacity int) *Channel {
	return &Channel{ch: make(chan Notice, capacity)}
}

func (c *Channel) Report(n Notice) {
	select {
	case c.ch <- n:
	default:
	}
}

func (c *Channel) C() <-chan Notice {
	return c.ch
}
