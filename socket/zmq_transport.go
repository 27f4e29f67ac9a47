package socket

import (
	"errors"
	"syscall"

	"github.com/czx-lab/traeger/zeromq"
	zmq "github.com/pebbe/zmq4"
)

// zmqRequestTransport adapts a DEALER-mode zeromq.Zeromq into a
// RequestTransport: every logical multi-frame message is prefixed with
// the empty delimiter frame DEALER/ROUTER pairing expects, and every send
// or receive is attempted non-blocking so it composes with the Requester
// hot-poll loop instead of stalling a scheduler worker.
type zmqRequestTransport struct {
	zq *zeromq.Zeromq
}

// NewZMQRequestTransport wires a connected DEALER socket for use by a
// Requester.
func NewZMQRequestTransport(zq *zeromq.Zeromq) RequestTransport {
	return &zmqRequestTransport{zq: zq}
}

func (t *zmqRequestTransport) TrySend(f Frames) (bool, error) {
	parts := append(Frames{{}}, f...)
	ok, err := sendMultipart(t.zq.Socket(), parts)
	return ok, err
}

func (t *zmqRequestTransport) TryRecv() (Frames, bool, error) {
	parts, ok, err := recvMultipart(t.zq.Socket())
	if !ok || err != nil {
		return nil, ok, err
	}
	if len(parts) < 1 {
		return nil, false, nil
	}
	return parts[1:], true, nil
}

func (t *zmqRequestTransport) Close() error {
	t.zq.Close()
	return nil
}

// zmqReplyTransport adapts a ROUTER-mode zeromq.Zeromq into a
// ReplyTransport: the connection identity ZeroMQ auto-prepends on receive
// is surfaced as the session token, and must be echoed back on send so
// ROUTER delivers the reply to the right peer.
type zmqReplyTransport struct {
	zq *zeromq.Zeromq
}

// NewZMQReplyTransport wires a bound ROUTER socket for use by a Replier.
func NewZMQReplyTransport(zq *zeromq.Zeromq) ReplyTransport {
	return &zmqReplyTransport{zq: zq}
}

func (t *zmqReplyTransport) TryRecv() ([]byte, Frames, bool, error) {
	parts, ok, err := recvMultipart(t.zq.Socket())
	if !ok || err != nil {
		return nil, nil, ok, err
	}
	if len(parts) < 2 {
		return nil, nil, false, nil
	}
	identity := parts[0]
	return identity, parts[2:], true, nil
}

func (t *zmqReplyTransport) TrySend(session []byte, f Frames) (bool, error) {
	parts := append(Frames{session, {}}, f...)
	return sendMultipart(t.zq.Socket(), parts)
}

func (t *zmqReplyTransport) Close() error {
	t.zq.Close()
	return nil
}

// zmqPubTransport adapts a PUB-mode zeromq.Zeromq into a PubTransport.
type zmqPubTransport struct {
	zq *zeromq.Zeromq
}

// NewZMQPubTransport wires a bound PUB socket for use by a Publisher.
func NewZMQPubTransport(zq *zeromq.Zeromq) PubTransport {
	return &zmqPubTransport{zq: zq}
}

func (t *zmqPubTransport) TryPublish(f Frames) (bool, error) {
	return sendMultipart(t.zq.Socket(), f)
}

func (t *zmqPubTransport) Close() error {
	t.zq.Close()
	return nil
}

// zmqSubTransport adapts a SUB-mode zeromq.Zeromq into a SubTransport.
type zmqSubTransport struct {
	zq *zeromq.Zeromq
}

// NewZMQSubTransport wires a connected SUB socket subscribed to every
// topic in topics (all topics, if empty) for use by a Subscriber.
func NewZMQSubTransport(zq *zeromq.Zeromq, topics []string) (SubTransport, error) {
	if len(topics) == 0 {
		topics = []string{""}
	}
	for _, topic := range topics {
		if err := zq.Socket().SetSubscribe(topic); err != nil {
			return nil, err
		}
	}
	return &zmqSubTransport{zq: zq}, nil
}

func (t *zmqSubTransport) TrySubscribe() (Frames, bool, error) {
	return recvMultipart(t.zq.Socket())
}

func (t *zmqSubTransport) Close() error {
	t.zq.Close()
	return nil
}

func sendMultipart(sock *zmq.Socket, parts Frames) (bool, error) {
	for i, part := range parts {
		flag := zmq.DONTWAIT
		if i < len(parts)-1 {
			flag |= zmq.SNDMORE
		}
		if _, err := sock.SendBytes(part, flag); err != nil {
			if errors.Is(err, syscall.EAGAIN) {
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

func recvMultipart(sock *zmq.Socket) (Frames, bool, error) {
	parts, err := sock.RecvMessageBytes(zmq.DONTWAIT)
	if err != nil {
		if errors.Is(err, syscall.EAGAIN) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return Frames(parts), true, nil
}
