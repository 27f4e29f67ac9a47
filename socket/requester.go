package socket

import (
	"github.com/czx-lab/traeger/actor"
	"github.com/czx-lab/traeger/format"
	"github.com/czx-lab/traeger/promise"
	"github.com/czx-lab/traeger/scheduler"
	"github.com/czx-lab/traeger/value"
)

// Requester sends a 3-frame request (method, format name, encoded
// arguments) over a RequestTransport and resolves a Promise once the
// matching 2-frame reply (encoded result, error) is observed.
type Requester struct {
	transport RequestTransport
	format    format.Format
}

// NewRequester builds a Requester that encodes outgoing arguments with f.
func NewRequester(t RequestTransport, f format.Format) *Requester {
	return &Requester{transport: t, format: f}
}

var _ actor.Mailbox = (*Requester)(nil)

// Mailbox returns the Requester as the Mailbox capability it is: a remote
// actor consumed through it is indistinguishable from a local one.
func (r *Requester) Mailbox() actor.Mailbox { return r }

// Send encodes args with the Requester's Format, writes the request frame,
// and returns a Promise that settles once a reply arrives.
func (r *Requester) Send(sched *scheduler.Scheduler, name string, args value.List) promise.Promise {
	p := promise.New(sched)

	encoded, err := r.format.Encode(value.FromList(args))
	if err != nil {
		p.SetResult(value.NewError(err.Error()))
		return p
	}

	r.trySend(sched, p, Frames{[]byte(name), []byte(r.format.Name()), []byte(encoded)})
	return p
}

func (r *Requester) trySend(sched *scheduler.Scheduler, p promise.Promise, req Frames) {
	if p.HasResult() {
		return
	}
	ok, err := r.transport.TrySend(req)
	if err != nil {
		p.SetResult(value.NewError(err.Error()))
		return
	}
	if !ok {
		sched.ScheduleDelayed(pollInterval, func() { r.trySend(sched, p, req) })
		return
	}
	r.pollReply(sched, p)
}

func (r *Requester) pollReply(sched *scheduler.Scheduler, p promise.Promise) {
	if p.HasResult() {
		return
	}
	frames, ok, err := r.transport.TryRecv()
	if err != nil {
		p.SetResult(value.NewError(err.Error()))
		return
	}
	if !ok {
		sched.ScheduleDelayed(pollInterval, func() { r.pollReply(sched, p) })
		return
	}
	p.SetResult(r.unpackReply(frames))
}

func (r *Requester) unpackReply(frames Frames) value.Result {
	if len(frames) != 2 {
		return value.NewError("malformed reply")
	}
	encoded, errMsg := string(frames[0]), string(frames[1])
	if encoded == "" && errMsg != "" {
		return value.NewError(errMsg)
	}
	v, err := r.format.Decode(encoded)
	if err != nil {
		return value.NewError(err.Error())
	}
	return value.NewValue(v)
}
