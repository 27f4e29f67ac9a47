// Package actor implements the Mailbox capability, StatelessActor and
// StatefulActor[S]: named-method dispatch over a per-actor serial task
// queue that enforces reader/writer concurrency.
package actor

import (
	"github.com/czx-lab/traeger/promise"
	"github.com/czx-lab/traeger/scheduler"
	"github.com/czx-lab/traeger/value"
)

// Concurrency classifies a registered method as read-only (Shared) or
// mutating (Exclusive).
type Concurrency int

const (
	Shared Concurrency = iota
	Exclusive
)

// Mailbox is the abstract capability every component in this module
// exposes to its callers: a name plus a list of Value arguments in,
// a Promise out. Actor mailboxes, Group, Module and the Requester socket
// mailbox all implement it.
type Mailbox interface {
	Send(sched *scheduler.Scheduler, name string, args value.List) promise.Promise
}

// MethodFunc is a registered actor method: it receives the call's
// arguments and produces the call's Result, coercing args via
// value.List.Unpack as needed.
type MethodFunc func(args value.List) value.Result

type methodEntry struct {
	concurrency Concurrency
	fn          MethodFunc
}

type methodTable map[string]methodEntry

type task struct {
	concurrency Concurrency
	run         func()
}
