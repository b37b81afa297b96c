package ledger

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// Sink receives a copy of every persisted entry. Sinks are best-effort
// observers for streaming, alerting, or shipping to an external collector;
// the store remains the authoritative record.
type Sink interface {
	Emit(ctx context.Context, entry Entry)
}

// NoOpSink discards every entry.
type NoOpSink struct{}

// Emit implements [Sink].
func (NoOpSink) Emit(context.Context, Entry) {}

// ChannelSink forwards entries to a buffered channel, dropping nothing but
// blocking the emitter until ctx is done when the buffer is full.
type ChannelSink struct {
	entries chan Entry
}

// NewChannelSink constructs a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		entries: make(chan Entry, buffer),
	}
}

// Emit implements [Sink].
func (s *ChannelSink) Emit(ctx context.Context, entry Entry) {
	select {
	case s.entries <- entry:
	case <-ctx.Done():
	}
}

// Entries exposes the receiving side of the sink.
func (s *ChannelSink) Entries() <-chan Entry {
	return s.entries
}

// JSONWriterSink writes one JSON line per entry to an io.Writer.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink constructs a JSONWriterSink over w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit implements [Sink].
func (s *JSONWriterSink) Emit(ctx context.Context, entry Entry) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
