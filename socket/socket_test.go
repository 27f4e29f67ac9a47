package socket

import (
	"sync"
	"testing"
	"time"

	"github.com/czx-lab/traeger/actor"
	"github.com/czx-lab/traeger/format"
	"github.com/czx-lab/traeger/scheduler"
	"github.com/czx-lab/traeger/value"
)

// memReqRep is an in-process loopback RequestTransport/ReplyTransport
// pair, letting the Requester/Replier protocol be exercised without a
// real ZeroMQ socket.
type memReqRep struct {
	mu       sync.Mutex
	toServer []Frames
	toClient []Frames
}

type memRequestSide struct{ link *memReqRep }
type memReplySide struct{ link *memReqRep }

func newMemReqRep() (RequestTransport, ReplyTransport) {
	link := &memReqRep{}
	return &memRequestSide{link: link}, &memReplySide{link: link}
}

func (s *memRequestSide) TrySend(f Frames) (bool, error) {
	s.link.mu.Lock()
	defer s.link.mu.Unlock()
	s.link.toServer = append(s.link.toServer, f)
	return true, nil
}

func (s *memRequestSide) TryRecv() (Frames, bool, error) {
	s.link.mu.Lock()
	defer s.link.mu.Unlock()
	if len(s.link.toClient) == 0 {
		return nil, false, nil
	}
	f := s.link.toClient[0]
	s.link.toClient = s.link.toClient[1:]
	return f, true, nil
}

func (s *memRequestSide) Close() error { return nil }

func (s *memReplySide) TryRecv() ([]byte, Frames, bool, error) {
	s.link.mu.Lock()
	defer s.link.mu.Unlock()
	if len(s.link.toServer) == 0 {
		return nil, nil, false, nil
	}
	f := s.link.toServer[0]
	s.link.toServer = s.link.toServer[1:]
	return nil, f, true, nil
}

func (s *memReplySide) TrySend(_ []byte, f Frames) (bool, error) {
	s.link.mu.Lock()
	defer s.link.mu.Unlock()
	s.link.toClient = append(s.link.toClient, f)
	return true, nil
}

func (s *memReplySide) Close() error { return nil }

func divisionActor() *actor.StatelessActor {
	a := actor.New()
	a.DefineReader("div", func(args value.List) value.Result {
		var x, y float64
		if ok, errMsg := args.Unpack(&x, &y); !ok {
			return value.NewError(errMsg)
		}
		if y == 0 {
			return value.NewError("division by zero")
		}
		return value.NewValue(value.NewFloat(x / y))
	})
	return a
}

func TestRequestReplyRoundTrip(t *testing.T) {
	sched := scheduler.New(2)
	defer sched.Stop()

	clientSide, serverSide := newMemReqRep()
	jsonFmt, _ := format.ByName("json")

	replier := NewReplier(serverSide, divisionActor().Mailbox())
	serve := replier.Serve(sched)
	defer serve.SetResult(value.NewValue(value.Null()))

	requester := NewRequester(clientSide, jsonFmt)
	p := requester.Send(sched, "div", value.NewList(value.NewFloat(10), value.NewFloat(2)))

	done := make(chan float64, 1)
	p.Then(func(v value.Value) value.Result {
		f, _ := v.GetFloat()
		done <- f
		return value.Undefined()
	})

	select {
	case f := <-done:
		if f != 5 {
			t.Fatalf("expected 5, got %v", f)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestRequestReplyPropagatesError(t *testing.T) {
	sched := scheduler.New(2)
	defer sched.Stop()

	clientSide, serverSide := newMemReqRep()
	jsonFmt, _ := format.ByName("json")

	replier := NewReplier(serverSide, divisionActor().Mailbox())
	serve := replier.Serve(sched)
	defer serve.SetResult(value.NewValue(value.Null()))

	requester := NewRequester(clientSide, jsonFmt)
	p := requester.Send(sched, "div", value.NewList(value.NewFloat(10), value.NewFloat(0)))

	errCh := make(chan string, 1)
	p.Fail(func(e string) { errCh <- e })

	select {
	case e := <-errCh:
		if e != "division by zero" {
			t.Fatalf("unexpected error: %q", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

// memPubSub is an in-process loopback PubTransport/SubTransport pair.
type memPubSub struct {
	mu    sync.Mutex
	inbox []Frames
}

func (m *memPubSub) TryPublish(f Frames) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox = append(m.inbox, f)
	return true, nil
}

func (m *memPubSub) TrySubscribe() (Frames, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inbox) == 0 {
		return nil, false, nil
	}
	f := m.inbox[0]
	m.inbox = m.inbox[1:]
	return f, true, nil
}

func (m *memPubSub) Close() error { return nil }

func TestPublishSubscribeRoundTrip(t *testing.T) {
	sched := scheduler.New(2)
	defer sched.Stop()

	link := &memPubSub{}
	jsonFmt, _ := format.ByName("json")

	pub := NewPublisher(link, jsonFmt)
	sub := NewSubscriber(link)

	got := make(chan Message, 1)
	listen := sub.Listen(sched, func(m Message) { got <- m })

	pub.Publish(sched, "weather", value.NewString("sunny"))

	select {
	case m := <-got:
		if m.Topic != "weather" {
			t.Fatalf("unexpected topic %q", m.Topic)
		}
		s, _ := m.Value.GetString()
		if s != "sunny" {
			t.Fatalf("unexpected value %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
	listen.SetResult(value.NewValue(value.Null()))
}

func TestPublishSubscribeOrdering(t *testing.T) {
	sched := scheduler.New(2)
	defer sched.Stop()

	link := &memPubSub{}
	jsonFmt, _ := format.ByName("json")

	pub := NewPublisher(link, jsonFmt)
	sub := NewSubscriber(link)

	got := make(chan int64, 5)
	listen := sub.Listen(sched, func(m Message) {
		i, _ := m.Value.GetInt()
		got <- i
	})

	for _, n := range []int64{10, 20, 30, 40, 50} {
		pub.Publish(sched, "my_topic", value.NewInt(n))
	}

	for _, want := range []int64{10, 20, 30, 40, 50} {
		select {
		case i := <-got:
			if i != want {
				t.Fatalf("expected %d, got %d", want, i)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %d", want)
		}
	}
	listen.SetResult(value.NewValue(value.Null()))
}
