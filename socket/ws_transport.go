package socket

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// wsConn wraps a gorilla/websocket connection with a background reader
// goroutine feeding a channel, turning its blocking ReadMessage into the
// non-blocking poll every transport in this package needs.
type wsConn struct {
	conn    *websocket.Conn
	inbox   chan Frames
	writeMu sync.Mutex
	closed  chan struct{}
}

func newWSConn(conn *websocket.Conn) *wsConn {
	w := &wsConn{conn: conn, inbox: make(chan Frames, 256), closed: make(chan struct{})}
	go w.readLoop()
	return w
}

func (w *wsConn) readLoop() {
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			close(w.closed)
			return
		}
		w.inbox <- decodeFrames(data)
	}
}

func (w *wsConn) trySend(f Frames) (bool, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if err := w.conn.WriteMessage(websocket.BinaryMessage, encodeFrames(f)); err != nil {
		return false, err
	}
	return true, nil
}

func (w *wsConn) tryRecv() (Frames, bool, error) {
	select {
	case f := <-w.inbox:
		return f, true, nil
	case <-w.closed:
		return nil, false, errClosed
	default:
		return nil, false, nil
	}
}

func (w *wsConn) close() error { return w.conn.Close() }

// wsRequestTransport adapts a dialed client connection into a
// RequestTransport for a Requester.
type wsRequestTransport struct{ *wsConn }

// NewWSRequestTransport wraps a client-dialed connection for use by a
// Requester.
func NewWSRequestTransport(conn *websocket.Conn) RequestTransport {
	return &wsRequestTransport{wsConn: newWSConn(conn)}
}

func (t *wsRequestTransport) TrySend(f Frames) (bool, error) { return t.trySend(f) }
func (t *wsRequestTransport) TryRecv() (Frames, bool, error) { return t.tryRecv() }
func (t *wsRequestTransport) Close() error                   { return t.close() }

// wsReplyTransport adapts a server-accepted connection into a
// ReplyTransport for a Replier. A websocket connection is inherently
// single-peer, so the session token is always empty.
type wsReplyTransport struct{ *wsConn }

// NewWSReplyTransport wraps a server-accepted connection for use by a
// Replier.
func NewWSReplyTransport(conn *websocket.Conn) ReplyTransport {
	return &wsReplyTransport{wsConn: newWSConn(conn)}
}

func (t *wsReplyTransport) TryRecv() ([]byte, Frames, bool, error) {
	f, ok, err := t.tryRecv()
	return nil, f, ok, err
}
func (t *wsReplyTransport) TrySend(_ []byte, f Frames) (bool, error) { return t.trySend(f) }
func (t *wsReplyTransport) Close() error                             { return t.close() }

// wsPubSubTransport adapts a connection into both a PubTransport and a
// SubTransport, since websocket carries publish and subscribe over the
// same duplex connection rather than distinct socket types.
type wsPubSubTransport struct{ *wsConn }

// NewWSPubSubTransport wraps conn for use as both a Publisher's
// PubTransport and a Subscriber's SubTransport.
func NewWSPubSubTransport(conn *websocket.Conn) *wsPubSubTransport {
	return &wsPubSubTransport{wsConn: newWSConn(conn)}
}

func (t *wsPubSubTransport) TryPublish(f Frames) (bool, error)   { return t.trySend(f) }
func (t *wsPubSubTransport) TrySubscribe() (Frames, bool, error) { return t.tryRecv() }
func (t *wsPubSubTransport) Close() error                        { return t.close() }

var errClosed = errors.New("websocket: connection closed")
