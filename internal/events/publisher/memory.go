package publisher

import (
	"context"
	"sync"

	"veriflow/internal/events"
)

// Recorded is one message a Recorder captured.
type Recorded struct {
	Topic   events.Topic
	Key     string
	Payload []byte
}

// Recorder is an in-memory sender for deterministic tests. It can optionally
// forward every payload to a delivery function, which lets tests wire the
// publisher straight into an ingestor router.
type Recorder struct {
	mu      sync.Mutex
	sent    []Recorded
	forward func(ctx context.Context, topic events.Topic, payload []byte) error
	failErr error
}

// NewRecorder builds an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Forward registers a delivery function invoked for every sent payload.
func (r *Recorder) Forward(fn func(ctx context.Context, topic events.Topic, payload []byte) error) {
	r.forward = fn
}

// FailWith makes every subsequent Send return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failErr = err
}

func (r *Recorder) Send(ctx context.Context, topic events.Topic, key string, payload []byte) error {
	r.mu.Lock()
	if r.failErr != nil {
		err := r.failErr
		r.mu.Unlock()
		return err
	}
	r.sent = append(r.sent, Recorded{Topic: topic, Key: key, Payload: payload})
	fn := r.forward
	r.mu.Unlock()

	if fn != nil {
		return fn(ctx, topic, payload)
	}
	return nil
}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded{}, r.sent...)
}

// SentTo filters recorded messages by topic.
func (r *Recorder) SentTo(topic events.Topic) []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Recorded
	for _, m := range r.sent {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}
