package group

import (
	"testing"
	"time"

	"github.com/czx-lab/traeger/actor"
	"github.com/czx-lab/traeger/scheduler"
	"github.com/czx-lab/traeger/value"
)

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

func TestDivisionByZeroThroughNestedGroups(t *testing.T) {
	sched := scheduler.New(2)
	defer sched.Stop()

	arithmetic := New()
	arithmetic.Add("Division", divisionActor().Mailbox())

	math := New()
	math.Add("Arithmetic", arithmetic.Mailbox())

	p := math.Mailbox().Send(sched, "Arithmetic/Division/div", value.NewList(value.NewFloat(100), value.NewFloat(0)))

	done := make(chan value.Value, 1)
	p.Then(func(v value.Value) value.Result { done <- v; return value.Undefined() })

	select {
	case v := <-done:
		m, ok := v.GetMap()
		if !ok {
			t.Fatalf("expected Map envelope, got %v", v)
		}
		source, _ := m.Find("source")
		s, _ := source.GetString()
		if s != "Arithmetic/Division/div" {
			t.Fatalf("expected source breadcrumb, got %q", s)
		}
		errVal, _ := m.Find("error")
		errStr, _ := errVal.GetString()
		if errStr != "division by zero" {
			t.Fatalf("expected division by zero error, got %q", errStr)
		}
		val, _ := m.Find("value")
		if !val.GetNull() {
			t.Fatalf("expected null value on error, got %v", val)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestGroupPathEquivalence(t *testing.T) {
	sched := scheduler.New(2)
	defer sched.Stop()

	div := divisionActor()
	g := New()
	g.Add("B", div.Mailbox())

	direct := div.Mailbox().Send(sched, "div", value.NewList(value.NewFloat(10), value.NewFloat(2)))
	routed := g.Mailbox().Send(sched, "B/div", value.NewList(value.NewFloat(10), value.NewFloat(2)))

	directCh := make(chan float64, 1)
	direct.Then(func(v value.Value) value.Result {
		f, _ := v.GetFloat()
		directCh <- f
		return value.Undefined()
	})

	routedCh := make(chan float64, 1)
	routed.Then(func(v value.Value) value.Result {
		m, _ := v.GetMap()
		val, _ := m.Find("value")
		f, _ := val.GetFloat()
		routedCh <- f
		return value.Undefined()
	})

	var direct1, routed1 float64
	select {
	case direct1 = <-directCh:
	case <-time.After(time.Second):
		t.Fatal("timed out on direct")
	}
	select {
	case routed1 = <-routedCh:
	case <-time.After(time.Second):
		t.Fatal("timed out on routed")
	}
	if direct1 != routed1 {
		t.Fatalf("expected equivalent results, got %v vs %v", direct1, routed1)
	}
}

func TestInvalidPath(t *testing.T) {
	sched := scheduler.New(1)
	defer sched.Stop()

	g := New()
	p := g.Mailbox().Send(sched, "noslash", value.NewList())
	errCh := make(chan string, 1)
	p.Fail(func(e string) { errCh <- e })
	select {
	case e := <-errCh:
		if e != "invalid path noslash" {
			t.Fatalf("unexpected error: %q", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}
