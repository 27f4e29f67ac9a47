package socket

import (
	"encoding/binary"

	"github.com/czx-lab/traeger/xnats"
	"github.com/nats-io/nats.go"
)

// natsPubTransport adapts xnats.XNats into a PubTransport. NATS has no
// notion of backpressure at this API level, so TryPublish never reports
// false: Publish either succeeds synchronously or fails outright.
type natsPubTransport struct {
	nc      *xnats.XNats
	subject string
}

// NewNATSPubTransport wires a Publisher onto subject.
func NewNATSPubTransport(nc *xnats.XNats, subject string) PubTransport {
	return &natsPubTransport{nc: nc, subject: subject}
}

func (t *natsPubTransport) TryPublish(f Frames) (bool, error) {
	if err := t.nc.Publish(t.subject, encodeFrames(f)); err != nil {
		return false, err
	}
	return true, nil
}

func (t *natsPubTransport) Close() error {
	t.nc.Close()
	return nil
}

// natsSubTransport adapts xnats.XNats into a SubTransport by buffering
// asynchronous subscription deliveries into a channel TrySubscribe polls
// non-blockingly.
type natsSubTransport struct {
	nc    *xnats.XNats
	inbox chan Frames
	sub   *nats.Subscription
}

// NewNATSSubTransport subscribes to subject and returns a SubTransport
// delivering every message received from then on.
func NewNATSSubTransport(nc *xnats.XNats, subject string) (SubTransport, error) {
	t := &natsSubTransport{nc: nc, inbox: make(chan Frames, 256)}
	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		t.inbox <- decodeFrames(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	t.sub = sub
	return t, nil
}

func (t *natsSubTransport) TrySubscribe() (Frames, bool, error) {
	select {
	case f := <-t.inbox:
		return f, true, nil
	default:
		return nil, false, nil
	}
}

func (t *natsSubTransport) Close() error {
	if t.sub != nil {
		_ = t.sub.Unsubscribe()
	}
	return nil
}

// encodeFrames/decodeFrames give the length-prefixed wire form NATS'
// single-payload Publish/Msg.Data needs to carry our multipart Frames.
func encodeFrames(f Frames) []byte {
	var out []byte
	var lenBuf [binary.MaxVarintLen64]byte
	for _, part := range f {
		n := binary.PutUvarint(lenBuf[:], uint64(len(part)))
		out = append(out, lenBuf[:n]...)
		out = append(out, part...)
	}
	return out
}

func decodeFrames(data []byte) Frames {
	var frames Frames
	for len(data) > 0 {
		n, used := binary.Uvarint(data)
		if used <= 0 || uint64(len(data)-used) < n {
			break
		}
		data = data[used:]
		frames = append(frames, data[:n])
		data = data[n:]
	}
	return frames
}
