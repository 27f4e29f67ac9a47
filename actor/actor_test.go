package actor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/czx-lab/traeger/scheduler"
	"github.com/czx-lab/traeger/value"
)

var _ Mailbox = actorMailbox{}

type account struct {
	balance float64
}

func newAccountActor() *StatefulActor[account] {
	a := NewStateful(&account{})

	DefineWriter(a, "deposit", func(s *account, args value.List) value.Result {
		var amount float64
		if ok, errMsg := args.Unpack(&amount); !ok {
			return value.NewError(errMsg)
		}
		if amount <= 0 {
			return value.NewError("invalid amount")
		}
		s.balance += amount
		return value.NewValue(value.NewFloat(s.balance))
	})

	DefineWriter(a, "debit", func(s *account, args value.List) value.Result {
		var amount float64
		if ok, errMsg := args.Unpack(&amount); !ok {
			return value.NewError(errMsg)
		}
		if amount <= 0 {
			return value.NewError("invalid amount")
		}
		if amount > s.balance {
			return value.NewError("not enough funds")
		}
		s.balance -= amount
		return value.NewValue(value.NewFloat(s.balance))
	})

	DefineReader(a, "balance", func(s *account, args value.List) value.Result {
		return value.NewValue(value.NewFloat(s.balance))
	})

	return a
}

func TestAccountActorScenario(t *testing.T) {
	sched := scheduler.New(4)
	defer sched.Stop()

	acc := newAccountActor()
	mbox := acc.Mailbox()

	type step struct {
		method  string
		amount  float64
		wantErr string
	}
	steps := []step{
		{"deposit", 1000, ""},
		{"deposit", 500, ""},
		{"deposit", 0, "invalid amount"},
		{"debit", -2000, "invalid amount"},
		{"debit", 750, ""},
		{"deposit", 250, ""},
		{"debit", 500, ""},
	}

	for i, s := range steps {
		p := mbox.Send(sched, s.method, value.NewList(value.NewFloat(s.amount)))
		errCh := make(chan string, 1)
		valCh := make(chan value.Value, 1)
		p.Then(func(v value.Value) value.Result { valCh <- v; return value.Undefined() })
		p.Fail(func(e string) { errCh <- e })

		select {
		case e := <-errCh:
			if s.wantErr == "" {
				t.Fatalf("step %d (%s): unexpected error %q", i, s.method, e)
			}
			if e != s.wantErr {
				t.Fatalf("step %d (%s): expected error %q, got %q", i, s.method, s.wantErr, e)
			}
		case <-valCh:
			if s.wantErr != "" {
				t.Fatalf("step %d (%s): expected error %q, got value", i, s.method, s.wantErr)
			}
		case <-time.After(time.Second):
			t.Fatalf("step %d (%s): timed out", i, s.method)
		}
	}

	balanceP := mbox.Send(sched, "balance", value.NewList())
	balCh := make(chan value.Value, 1)
	balanceP.Then(func(v value.Value) value.Result { balCh <- v; return value.Undefined() })
	select {
	case v := <-balCh:
		f, _ := v.GetFloat()
		if f != 500.0 {
			t.Fatalf("expected final balance 500.0, got %v", f)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for balance")
	}
}

func TestUnknownMethod(t *testing.T) {
	sched := scheduler.New(2)
	defer sched.Stop()

	a := New()
	mbox := a.Mailbox()

	p := mbox.Send(sched, "nope", value.NewList())
	done := make(chan string, 1)
	p.Fail(func(e string) { done <- e })

	select {
	case e := <-done:
		if e != "no such actor method nope" {
			t.Fatalf("unexpected error: %q", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for unknown-method error")
	}
}

func TestReaderConcurrency(t *testing.T) {
	sched := scheduler.New(4)
	defer sched.Stop()

	a := New()
	a.DefineReader("sum", func(args value.List) value.Result {
		time.Sleep(10 * time.Millisecond)
		var total int64
		args.Each(func(_ int, v value.Value) bool {
			i, _ := v.GetInt()
			total += i
			return true
		})
		return value.NewValue(value.NewInt(total))
	})
	mbox := a.Mailbox()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(4)
	for i := 0; i < 4; i++ {
		go func() {
			defer wg.Done()
			p := mbox.Send(sched, "sum", value.NewList(value.NewInt(1), value.NewInt(2)))
			done := make(chan struct{})
			p.Then(func(value.Value) value.Result { close(done); return value.Undefined() })
			<-done
		}()
	}
	wg.Wait()
	if elapsed := time.Since(start); elapsed >= 40*time.Millisecond {
		t.Fatalf("expected concurrent reader execution under 40ms, took %v", elapsed)
	}
}

// TestWriterExclusion drives readers and a writer through the same actor
// and checks that no task overlaps the writer's user-code region.
func TestWriterExclusion(t *testing.T) {
	sched := scheduler.New(4)
	defer sched.Stop()

	a := New()
	var inWriter atomic.Bool
	var inflight atomic.Int64
	var violations atomic.Int64

	a.DefineReader("read", func(value.List) value.Result {
		inflight.Add(1)
		if inWriter.Load() {
			violations.Add(1)
		}
		time.Sleep(2 * time.Millisecond)
		inflight.Add(-1)
		return value.NewValue(value.Null())
	})
	a.DefineWriter("write", func(value.List) value.Result {
		inWriter.Store(true)
		if inflight.Load() != 0 {
			violations.Add(1)
		}
		time.Sleep(2 * time.Millisecond)
		inWriter.Store(false)
		return value.NewValue(value.Null())
	})

	mbox := a.Mailbox()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		method := "read"
		if i%5 == 0 {
			method = "write"
		}
		wg.Add(1)
		p := mbox.Send(sched, method, value.NewList())
		p.Then(func(value.Value) value.Result {
			wg.Done()
			return value.NewValue(value.Null())
		})
	}
	wg.Wait()

	if n := violations.Load(); n != 0 {
		t.Fatalf("observed %d reader/writer overlap violations", n)
	}
}

// TestMethodRegistrySnapshotIsolation verifies that a Mailbox resolved
// before a later Define keeps dispatching against its older snapshot.
func TestMethodRegistrySnapshotIsolation(t *testing.T) {
	sched := scheduler.New(2)
	defer sched.Stop()

	a := New()
	oldMailbox := a.Mailbox()

	a.DefineReader("ping", func(value.List) value.Result {
		return value.NewValue(value.NewString("pong"))
	})
	newMailbox := a.Mailbox()

	p := oldMailbox.Send(sched, "ping", value.NewList())
	errCh := make(chan string, 1)
	p.Fail(func(e string) { errCh <- e })
	select {
	case e := <-errCh:
		if e != "no such actor method ping" {
			t.Fatalf("expected old snapshot to miss ping, got %q", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}

	p2 := newMailbox.Send(sched, "ping", value.NewList())
	valCh := make(chan string, 1)
	p2.Then(func(v value.Value) value.Result {
		s, _ := v.GetString()
		valCh <- s
		return value.Undefined()
	})
	select {
	case s := <-valCh:
		if s != "pong" {
			t.Fatalf("expected pong, got %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}
