package audit

import (
	"sync"

	"github.com/lumenquant/tradecore/internal/clock"
)

// Stream is the engine's audit recorder. Emit is called synchronously from
// the engine loop, once per observable change; it assigns the next
// sequence number, stamps the record with the clock's current time, and
// fans it out to every subscriber. Subscribers that fail to keep up block
// the emitting call, by design: the audit stream never silently drops a
// record.
type Stream struct {
	clk clock.Clock

	mu       sync.Mutex
	sequence uint64
	subs     []chan Record
}

// NewStream creates an audit stream backed by the given clock.
func NewStream(clk clock.Clock) *Stream {
	return &Stream{clk: clk}
}

// Subscribe registers a new consumer and returns the channel it should
// read from. The channel is buffered to capacity; once capacity is
// exceeded, Emit blocks until the consumer drains it.
func (s *Stream) Subscribe(capacity int) <-chan Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Record, capacity)
	s.subs = append(s.subs, ch)
	return ch
}

// Emit assigns the next sequence number, timestamps the record, and
// delivers it to every subscriber in registration order.
func (s *Stream) Emit(cause Cause, diff StateDiff) Record {
	s.mu.Lock()
	s.sequence++
	rec := Record{
		Sequence: s.sequence,
		Time:     s.clk.Now(),
		Cause:    cause,
		Diff:     diff,
	}
	subs := make([]chan Record, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, ch := range subs {
		ch <- rec
	}
	return rec
}

// EmitShutdown emits the distinguished terminal Shutdown record and closes
// every subscriber channel, signalling consumers to stop reading.
func (s *Stream) EmitShutdown(cause Cause) Record {
	rec := s.Emit(cause, StateDiff{Kind: DiffShutdown})
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		close(ch)
	}
	return rec
}

// Sequence returns the most recently assigned sequence number.
func (s *Stream) Sequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sequence
}
