package socket

import (
	"go.uber.org/zap"

	"github.com/czx-lab/traeger/format"
	"github.com/czx-lab/traeger/promise"
	"github.com/czx-lab/traeger/scheduler"
	"github.com/czx-lab/traeger/value"
	"github.com/czx-lab/traeger/xlog"
)

// Publisher writes a 3-frame (topic, format name, encoded value) message
// per Publish call, retrying on a PubTransport that reports backpressure.
type Publisher struct {
	transport PubTransport
	format    format.Format
}

// NewPublisher builds a Publisher that encodes outgoing values with f.
func NewPublisher(t PubTransport, f format.Format) *Publisher {
	return &Publisher{transport: t, format: f}
}

// Publish encodes v and writes it under topic, returning a Promise that
// settles once the frame is accepted by the transport.
func (pub *Publisher) Publish(sched *scheduler.Scheduler, topic string, v value.Value) promise.Promise {
	p := promise.New(sched)
	encoded, err := pub.format.Encode(v)
	if err != nil {
		p.SetResult(value.NewError(err.Error()))
		return p
	}
	pub.trySend(sched, p, Frames{[]byte(topic), []byte(pub.format.Name()), []byte(encoded)})
	return p
}

func (pub *Publisher) trySend(sched *scheduler.Scheduler, p promise.Promise, msg Frames) {
	ok, err := pub.transport.TryPublish(msg)
	if err != nil {
		p.SetResult(value.NewError(err.Error()))
		return
	}
	if !ok {
		sched.ScheduleDelayed(pollInterval, func() { pub.trySend(sched, p, msg) })
		return
	}
	p.SetResult(value.NewValue(value.Null()))
}

// Message is one decoded publish/subscribe delivery.
type Message struct {
	Topic string
	Value value.Value
}

// Subscriber hot-polls a SubTransport and delivers decoded messages to a
// handler until its listen Promise is settled.
type Subscriber struct {
	transport SubTransport
}

// NewSubscriber builds a Subscriber over t.
func NewSubscriber(t SubTransport) *Subscriber {
	return &Subscriber{transport: t}
}

// Listen starts the self-perpetuating poll loop on sched, invoking handler
// for every message whose encoded format is registered. The returned
// Promise is how the loop ends: setting any result on it stops polling
// after the next tick, and a transport receive error settles it to that
// error.
func (s *Subscriber) Listen(sched *scheduler.Scheduler, handler func(Message)) promise.Promise {
	p := promise.New(sched)
	s.pollOnce(sched, p, handler)
	return p
}

func (s *Subscriber) pollOnce(sched *scheduler.Scheduler, p promise.Promise, handler func(Message)) {
	if p.HasResult() {
		return
	}
	frames, ok, err := s.transport.TrySubscribe()
	if err != nil {
		p.SetResult(value.NewError(err.Error()))
		return
	}
	if !ok {
		sched.ScheduleDelayed(pollInterval, func() { s.pollOnce(sched, p, handler) })
		return
	}
	if len(frames) == 3 {
		topic, formatName, encoded := string(frames[0]), string(frames[1]), string(frames[2])
		if f, ok := format.ByName(formatName); ok {
			if v, err := f.Decode(encoded); err == nil {
				deliver(handler, Message{Topic: topic, Value: v})
			}
		}
	}
	sched.Schedule(func() { s.pollOnce(sched, p, handler) })
}

// deliver shields the poll loop from a panicking handler the same way an
// actor method's panic becomes a Result error instead of taking down a
// worker.
func deliver(handler func(Message), m Message) {
	defer func() {
		if rec := recover(); rec != nil {
			xlog.Write().Warn("subscriber handler panicked", zap.Any("recover", rec))
		}
	}()
	handler(m)
}
