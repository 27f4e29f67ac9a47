package socket

import (
	"github.com/czx-lab/traeger/actor"
	"github.com/czx-lab/traeger/format"
	zmq "github.com/pebbe/zmq4"

	"github.com/czx-lab/traeger/zeromq"
)

// Context is the ZeroMQ-backed factory for the four transport roles,
// mirroring the original's replier/requester/publisher/subscriber
// factory methods. It carries no state of its own: every ZeroMQ socket
// created through it is independent.
type Context struct{}

// NewContext returns a Context.
func NewContext() *Context { return &Context{} }

// Replier binds a ROUTER socket at addr and returns a Replier serving
// mailbox once Serve is called.
func (c *Context) Replier(addr string, mailbox actor.Mailbox) (*Replier, error) {
	return ReplierAt(addr, mailbox)
}

// Requester connects a DEALER socket to addr and returns a Requester
// encoding outgoing calls with f.
func (c *Context) Requester(addr string, f format.Format) (*Requester, error) {
	return RequesterAt(addr, f)
}

// Publisher binds a PUB socket at addr and returns a Publisher encoding
// outgoing values with f.
func (c *Context) Publisher(addr string, f format.Format) (*Publisher, error) {
	return PublisherAt(addr, f)
}

// Subscriber connects a SUB socket to addr, subscribed to topics (every
// topic if empty), and returns a Subscriber.
func (c *Context) Subscriber(addr string, topics []string) (*Subscriber, error) {
	return SubscriberAt(addr, topics)
}

// ReplierAt binds a ROUTER socket at addr and returns a Replier serving
// mailbox once Serve is called.
func ReplierAt(addr string, mailbox actor.Mailbox) (*Replier, error) {
	zq, err := zeromq.NewZeromq(zeromq.ZeromqConf{Addr: addr, Type: zmq.ROUTER})
	if err != nil {
		return nil, err
	}
	return NewReplier(NewZMQReplyTransport(zq), mailbox), nil
}

// RequesterAt connects a DEALER socket to addr and returns a Requester
// encoding outgoing calls with f.
func RequesterAt(addr string, f format.Format) (*Requester, error) {
	zq, err := zeromq.NewZeromq(zeromq.ZeromqConf{Addr: addr, Type: zmq.DEALER})
	if err != nil {
		return nil, err
	}
	return NewRequester(NewZMQRequestTransport(zq), f), nil
}

// PublisherAt binds a PUB socket at addr and returns a Publisher encoding
// outgoing values with f.
func PublisherAt(addr string, f format.Format) (*Publisher, error) {
	zq, err := zeromq.NewZeromq(zeromq.ZeromqConf{Addr: addr, Type: zmq.PUB})
	if err != nil {
		return nil, err
	}
	return NewPublisher(NewZMQPubTransport(zq), f), nil
}

// SubscriberAt connects a SUB socket to addr, subscribed to topics (every
// topic if empty), and returns a Subscriber.
func SubscriberAt(addr string, topics []string) (*Subscriber, error) {
	zq, err := zeromq.NewZeromq(zeromq.ZeromqConf{Addr: addr, Type: zmq.SUB})
	if err != nil {
		return nil, err
	}
	t, err := NewZMQSubTransport(zq, topics)
	if err != nil {
		return nil, err
	}
	return NewSubscriber(t), nil
}
