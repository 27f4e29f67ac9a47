// Package zeromq wraps pebbe/zmq4 connection setup (bind/connect dispatch
// by socket type, timeout and heartbeat options) for the non-blocking
// DEALER/ROUTER/PUB/SUB transports socket package builds on top of.
package zeromq

import (
	"fmt"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/czx-lab/traeger/xlog"
	"go.uber.org/zap"
)

const (
	defaultTimeout          = 30
	defaultHeartbeatIvl     = 30
	defaultHeartbeatTimeout = 60
)

// ZeromqConf is the configuration for a Zeromq socket.
type ZeromqConf struct {
	// Addr to bind (PUB/ROUTER) or connect (SUB/DEALER) to.
	Addr string
	Type zmq.Type
	// Timeout, HeartbeatIvl and HeartbeatTimeout are in seconds; zero means
	// the package default.
	Timeout          int
	HeartbeatIvl     int
	HeartbeatTimeout int
	// Identity, if set, is applied to DEALER sockets so a Replier's ROUTER
	// can route replies back by that fixed identity.
	Identity string
}

// Zeromq owns one *zmq.Socket for the lifetime of the connection.
type Zeromq struct {
	conf   ZeromqConf
	socket *zmq.Socket
}

// NewZeromq opens a socket of conf.Type and binds or connects it per the
// socket-type convention: PUB/REP/ROUTER/PUSH bind, SUB/REQ/DEALER/PULL
// connect.
func NewZeromq(conf ZeromqConf) (*Zeromq, error) {
	defaultConf(&conf)

	zq := &Zeromq{conf: conf}
	socket, err := zq.connect()
	if err != nil {
		return nil, err
	}
	zq.socket = socket
	return zq, nil
}

func (zq *Zeromq) connect() (socket *zmq.Socket, err error) {
	ctx, err := zmq.NewContext()
	if err != nil {
		return
	}
	socket, err = ctx.NewSocket(zq.conf.Type)
	if err != nil {
		return
	}
	if zq.conf.Type == zmq.DEALER && len(zq.conf.Identity) > 0 {
		if err = socket.SetIdentity(zq.conf.Identity); err != nil {
			return
		}
	}
	if err = socket.SetConnectTimeout(time.Duration(zq.conf.Timeout) * time.Second); err != nil {
		return
	}
	if err = socket.SetHeartbeatIvl(time.Duration(zq.conf.HeartbeatIvl) * time.Second); err != nil {
		return
	}
	if err = socket.SetHeartbeatTimeout(time.Duration(zq.conf.HeartbeatTimeout) * time.Second); err != nil {
		return
	}
	caddr := fmt.Sprintf("tcp://%s", zq.conf.Addr)
	switch zq.conf.Type {
	case zmq.PUB, zmq.REP, zmq.ROUTER, zmq.PUSH:
		err = socket.Bind(caddr)
	case zmq.SUB, zmq.REQ, zmq.DEALER, zmq.PULL:
		err = socket.Connect(caddr)
	}
	return
}

// Socket returns the underlying *zmq.Socket, for non-blocking send/recv by
// the transport layer above.
func (zq *Zeromq) Socket() *zmq.Socket { return zq.socket }

// Context returns the socket's owning *zmq.Context.
func (zq *Zeromq) Context() (*zmq.Context, error) { return zq.socket.Context() }

// Close closes the socket, logging rather than swallowing a close error
// since nothing downstream observes it once the Mailbox/transport is torn
// down.
func (zq *Zeromq) Close() {
	if zq.socket == nil {
		return
	}
	if err := zq.socket.Close(); err != nil {
		xlog.Write().Warn("zeromq close error", zap.Error(err))
	}
}

func defaultConf(conf *ZeromqConf) {
	if conf.Timeout == 0 {
		conf.Timeout = defaultTimeout
	}
	if conf.HeartbeatIvl == 0 {
		conf.HeartbeatIvl = defaultHeartbeatIvl
	}
	if conf.HeartbeatTimeout == 0 {
		conf.HeartbeatTimeout = defaultHeartbeatTimeout
	}
}
