package engine

import (
	"fmt"
	"io"
)

// OutputSink is where print results go. Delivery is the forwarding layer's
// responsibility: best-effort, per-sink success/failure, never blocking the
// engine indefinitely. The immediate flag asks for synchronous delivery
// instead of batching.
type OutputSink interface {
	Deliver(tag uint64, immediate bool, message string) error
}

// SinkFunc adapts a function to the OutputSink interface.
type SinkFunc func(tag uint64, immediate bool, message string) error

// Deliver calls f.
func (f SinkFunc) Deliver(tag uint64, immediate bool, message string) error {
	return f(tag, immediate, message)
}

// WriterSink delivers messages to an io.Writer, one per line, ignoring the
// tag and immediate flag. Suitable for host-side console output.
type WriterSink struct {
	W io.Writer
}

// Deliver writes the message followed by a newline.
func (s WriterSink) Deliver(tag uint64, immediate bool, message string) error {
	_, err := fmt.Fprintln(s.W, message)
	return err
}

// DiscardSink drops every message.
type DiscardSink struct{}

// Deliver does nothing.
func (DiscardSink) Deliver(tag uint64, immediate bool, message string) error {
	return nil
}
