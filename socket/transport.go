// Package socket implements request/reply and publish/subscribe transport
// on top of pluggable, non-blocking backends, bridged to Promises via the
// same hot-poll-and-reschedule pattern the actor package uses for
// contended method dispatch.
package socket

import "time"

// pollInterval is how often a pending receive is retried when a
// non-blocking poll comes back empty, mirroring the fixed 10ms retry the
// original transport used for its own hot-poll loops.
const pollInterval = 10 * time.Millisecond

// Frames is one multipart wire message.
type Frames [][]byte

// RequestTransport is the non-blocking, session-less transport a
// Requester polls: one TrySend per outgoing call, one TryRecv per
// incoming reply.
type RequestTransport interface {
	TrySend(f Frames) (bool, error)
	TryRecv() (Frames, bool, error)
	Close() error
}

// ReplyTransport is the non-blocking, session-aware transport a Replier
// polls: TryRecv reports which session (connection identity) a request
// came from, and TrySend must be given that same session back so the
// reply is routed to the right caller.
type ReplyTransport interface {
	TryRecv() (session []byte, frames Frames, ok bool, err error)
	TrySend(session []byte, f Frames) (bool, error)
	Close() error
}

// PubTransport is the non-blocking transport a Publisher polls.
type PubTransport interface {
	TryPublish(f Frames) (bool, error)
	Close() error
}

// SubTransport is the non-blocking transport a Subscriber polls.
type SubTransport interface {
	TrySubscribe() (Frames, bool, error)
	Close() error
}
