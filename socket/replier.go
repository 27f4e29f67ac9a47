package socket

import (
	"github.com/czx-lab/traeger/actor"
	"github.com/czx-lab/traeger/format"
	"github.com/czx-lab/traeger/promise"
	"github.com/czx-lab/traeger/scheduler"
	"github.com/czx-lab/traeger/value"
)

// Replier answers Requester calls: it decodes each incoming 3-frame
// request (method, format name, encoded arguments), forwards it to a
// Mailbox, and writes back a 2-frame reply (encoded result, error).
type Replier struct {
	transport ReplyTransport
	mailbox   actor.Mailbox
}

// NewReplier builds a Replier that dispatches onto mailbox.
func NewReplier(t ReplyTransport, mailbox actor.Mailbox) *Replier {
	return &Replier{transport: t, mailbox: mailbox}
}

// Serve starts the self-perpetuating poll loop on sched. The returned
// Promise is how the loop ends: setting any result on it stops polling
// after the next tick, and a transport receive error settles it to that
// error.
func (r *Replier) Serve(sched *scheduler.Scheduler) promise.Promise {
	p := promise.New(sched)
	r.pollOnce(sched, p)
	return p
}

func (r *Replier) pollOnce(sched *scheduler.Scheduler, p promise.Promise) {
	if p.HasResult() {
		return
	}
	session, frames, ok, err := r.transport.TryRecv()
	if err != nil {
		p.SetResult(value.NewError(err.Error()))
		return
	}
	if !ok {
		sched.ScheduleDelayed(pollInterval, func() { r.pollOnce(sched, p) })
		return
	}
	r.handle(sched, session, frames)
	sched.Schedule(func() { r.pollOnce(sched, p) })
}

func (r *Replier) handle(sched *scheduler.Scheduler, session []byte, frames Frames) {
	if len(frames) != 3 {
		r.reply(sched, session, "", "malformed request")
		return
	}
	name, formatName, encoded := string(frames[0]), string(frames[1]), string(frames[2])

	f, ok := format.ByName(formatName)
	if !ok {
		r.reply(sched, session, "", "unknown format "+formatName)
		return
	}
	argsValue, err := f.Decode(encoded)
	if err != nil {
		r.reply(sched, session, "", err.Error())
		return
	}
	args, ok := argsValue.GetList()
	if !ok {
		r.reply(sched, session, "", "request arguments must be a list")
		return
	}

	p := r.mailbox.Send(sched, name, args)
	p.Then(func(v value.Value) value.Result {
		enc, err := f.Encode(v)
		if err != nil {
			r.reply(sched, session, "", err.Error())
			return value.Undefined()
		}
		r.reply(sched, session, enc, "")
		return value.Undefined()
	})
	p.Fail(func(e string) {
		r.reply(sched, session, "", e)
	})
}

// reply retries a would-block send with the same hot-poll cadence the
// receive side uses; a transport error drops the reply, since the
// requester's own poll loop is what surfaces a dead connection.
func (r *Replier) reply(sched *scheduler.Scheduler, session []byte, encoded, errMsg string) {
	frames := Frames{[]byte(encoded), []byte(errMsg)}
	ok, err := r.transport.TrySend(session, frames)
	if err != nil || ok {
		return
	}
	sched.ScheduleDelayed(pollInterval, func() { r.reply(sched, session, encoded, errMsg) })
}
