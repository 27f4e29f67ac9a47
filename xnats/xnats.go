// Package xnats wraps a nats.go connection for the pub/sub-only transport
// backend socket.Publisher/Subscriber can bind a Mailbox to.
package xnats

import (
	"strings"

	"github.com/nats-io/nats.go"
)

type (
	NatsConf struct {
		// Hosts are the NATS server addresses to connect to.
		Hosts []string
	}
	XNats struct {
		conf NatsConf
		conn *nats.Conn
	}
)

// NewNats connects to every host in conf.Hosts.
func NewNats(conf NatsConf, opts ...nats.Option) (*XNats, error) {
	nc, err := nats.Connect(strings.Join(conf.Hosts, ","), opts...)
	if err != nil {
		return nil, err
	}
	return &XNats{conf: conf, conn: nc}, nil
}

// Publish sends data on subject.
func (n *XNats) Publish(subject string, data []byte) error {
	return n.conn.Publish(subject, data)
}

// Subscribe delivers every message received on subject to handler, for as
// long as the returned *nats.Subscription stays active.
func (n *XNats) Subscribe(subject string, handler func(msg *nats.Msg)) (*nats.Subscription, error) {
	return n.conn.Subscribe(subject, handler)
}

// Close closes the NATS connection.
func (n *XNats) Close() {
	if n.conn == nil {
		return
	}
	n.conn.Close()
}
