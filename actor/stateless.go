package actor

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/czx-lab/traeger/promise"
	"github.com/czx-lab/traeger/scheduler"
	"github.com/czx-lab/traeger/value"
	"github.com/czx-lab/traeger/xlog"
)

// StatelessActor owns a persistent (copy-on-write) method registry, a
// reader/writer execution lock, and a FIFO of pending tasks. It has no
// state of its own — StatefulActor[S] layers a shared state object on
// top by registering closures that capture it.
type StatelessActor struct {
	pid     PID
	methods atomic.Pointer[methodTable]

	qmu   sync.Mutex
	queue []task

	rw sync.RWMutex
}

// New constructs an empty StatelessActor.
func New(opts ...Option) *StatelessActor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	a := &StatelessActor{pid: o.pid, queue: make([]task, 0, o.queueCap)}
	empty := methodTable{}
	a.methods.Store(&empty)
	return a
}

// PID returns the actor's identifying PID.
func (a *StatelessActor) PID() PID { return a.pid }

// DefineReader registers name as a Shared (read-only) method.
func (a *StatelessActor) DefineReader(name string, fn MethodFunc) {
	a.define(name, Shared, fn)
}

// DefineWriter registers name as an Exclusive (mutating) method.
func (a *StatelessActor) DefineWriter(name string, fn MethodFunc) {
	a.define(name, Exclusive, fn)
}

// define installs a new immutable snapshot of the registry via
// compare-and-swap. Redefinition replaces; Mailboxes resolved from an
// earlier snapshot keep dispatching against that older snapshot.
func (a *StatelessActor) define(name string, c Concurrency, fn MethodFunc) {
	for {
		old := a.methods.Load()
		next := make(methodTable, len(*old)+1)
		for k, v := range *old {
			next[k] = v
		}
		next[name] = methodEntry{concurrency: c, fn: fn}
		if a.methods.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Mailbox returns a Mailbox bound to the registry snapshot current as of
// this call.
func (a *StatelessActor) Mailbox() Mailbox {
	return actorMailbox{actor: a, methods: a.methods.Load()}
}

// actorMailbox is the concrete Mailbox over a StatelessActor, pinned to
// one registry snapshot.
type actorMailbox struct {
	actor   *StatelessActor
	methods *methodTable
}

// Send implements Mailbox. An unknown method settles the returned
// Promise immediately to an error; otherwise a task is appended to the
// actor's FIFO and the actor is scheduled.
func (m actorMailbox) Send(sched *scheduler.Scheduler, name string, args value.List) promise.Promise {
	p := promise.New(sched)
	entry, ok := (*m.methods)[name]
	if !ok {
		p.SetResult(value.NewError("no such actor method " + name))
		return p
	}

	t := task{
		concurrency: entry.concurrency,
		run: func() {
			p.SetResult(invoke(entry.fn, args))
		},
	}
	m.actor.enqueue(t)
	m.actor.scheduleNext(sched)
	return p
}

// invoke runs fn, converting a panic into a Result.Error the way the
// original catches and transports a user exception.
func invoke(fn MethodFunc, args value.List) (r value.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			xlog.Write().Warn("actor method panicked", zap.Any("recover", rec))
			r = value.NewError(fmt.Sprintf("%v", rec))
		}
	}()
	return fn(args)
}

func (a *StatelessActor) enqueue(t task) {
	a.qmu.Lock()
	a.queue = append(a.queue, t)
	a.qmu.Unlock()
}

// scheduleNext is the self-perpetuating drain loop: it asks the Scheduler
// to attempt one dispatch step, which — whether or not it manages to run
// a task — resubmits itself as long as the queue remains non-empty.
func (a *StatelessActor) scheduleNext(sched *scheduler.Scheduler) {
	sched.Schedule(func() { a.tryExecuteNext(sched) })
}

// tryExecuteNext peeks the queue head under the queue mutex, attempts a
// non-blocking acquisition of the actor's RW lock in the task's mode, and
// only pops the task on success. On failure the task is left in place for
// another worker to retry. The task body and the RW lock critical section
// both run outside the queue mutex.
func (a *StatelessActor) tryExecuteNext(sched *scheduler.Scheduler) {
	a.qmu.Lock()
	if len(a.queue) == 0 {
		a.qmu.Unlock()
		return
	}
	next := a.queue[0]

	var locked bool
	if next.concurrency == Exclusive {
		locked = a.rw.TryLock()
	} else {
		locked = a.rw.TryRLock()
	}
	if !locked {
		a.qmu.Unlock()
		a.scheduleNext(sched)
		return
	}

	a.queue = a.queue[1:]
	remaining := len(a.queue) > 0
	a.qmu.Unlock()

	next.run()
	if next.concurrency == Exclusive {
		a.rw.Unlock()
	} else {
		a.rw.RUnlock()
	}

	if remaining {
		a.scheduleNext(sched)
	}
}
