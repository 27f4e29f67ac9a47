// Package promise implements a callback-style, single-assignment result
// cell bound to a scheduler, with chained continuations and
// chain-flattening.
package promise

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/czx-lab/traeger/scheduler"
	"github.com/czx-lab/traeger/value"
	"github.com/czx-lab/traeger/xlog"
)

// ValueCallback consumes a settled Value and produces the child's Result.
type ValueCallback func(value.Value) value.Result

// PromiseCallback consumes a settled Value and produces a Promise the
// child chains onto (chain-flattening).
type PromiseCallback func(value.Value) Promise

// ErrorCallback is a terminal consumer of a settled error.
type ErrorCallback func(string)

type state struct {
	mu        sync.Mutex
	scheduler *scheduler.Scheduler
	result    value.Result
	onValue   []func(value.Value)
	onError   []func(string)
}

// Promise is a single-assignment Result cell bound to exactly one
// Scheduler for its lifetime. The zero Promise is not usable; construct
// one with New.
type Promise struct {
	s *state
}

// New binds a fresh, unsettled Promise to sched.
func New(sched *scheduler.Scheduler) Promise {
	return Promise{s: &state{scheduler: sched, result: value.Undefined()}}
}

// HasResult reports whether the Promise has already settled.
func (p Promise) HasResult() bool {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	return !p.s.result.IsUndefined()
}

// SetResult atomically writes r iff the Promise is still Undefined,
// returning whether it succeeded. An Undefined r is rejected: the only
// legal transitions are Undefined to Value and Undefined to Error.
// Settling to Value silently drops all pending error callbacks without
// invoking them, and vice versa — both kinds of callbacks run, when they
// do, scheduled on the bound Scheduler.
func (p Promise) SetResult(r value.Result) bool {
	if r.IsUndefined() {
		return false
	}
	p.s.mu.Lock()
	if !p.s.result.IsUndefined() {
		p.s.mu.Unlock()
		return false
	}
	p.s.result = r
	onValue := p.s.onValue
	onError := p.s.onError
	p.s.onValue = nil
	p.s.onError = nil
	p.s.mu.Unlock()

	switch {
	case r.IsValue():
		v, _ := r.Value()
		for _, cb := range onValue {
			cb := cb
			p.s.scheduler.Schedule(func() { cb(v) })
		}
	case r.IsError():
		e, _ := r.Error()
		for _, cb := range onError {
			cb := cb
			p.s.scheduler.Schedule(func() { cb(e) })
		}
	}
	return true
}

// registerValue arranges for cb to run, scheduled on the bound Scheduler,
// once the Promise settles to Value — immediately if it already has.
func (p Promise) registerValue(cb func(value.Value)) {
	p.s.mu.Lock()
	if p.s.result.IsUndefined() {
		p.s.onValue = append(p.s.onValue, cb)
		p.s.mu.Unlock()
		return
	}
	r := p.s.result
	p.s.mu.Unlock()
	if v, ok := r.Value(); ok {
		p.s.scheduler.Schedule(func() { cb(v) })
	}
}

// registerError mirrors registerValue for the error branch.
func (p Promise) registerError(cb func(string)) {
	p.s.mu.Lock()
	if p.s.result.IsUndefined() {
		p.s.onError = append(p.s.onError, cb)
		p.s.mu.Unlock()
		return
	}
	r := p.s.result
	p.s.mu.Unlock()
	if e, ok := r.Error(); ok {
		p.s.scheduler.Schedule(func() { cb(e) })
	}
}

func safeCall(cb ValueCallback, v value.Value) (r value.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			xlog.Write().Warn("promise continuation panicked", zap.Any("recover", rec))
			r = value.NewError(fmt.Sprintf("%v", rec))
		}
	}()
	return cb(v)
}

// safePromiseCall runs a chain-flattening callback; a panic or an
// unusable zero Promise comes back as a non-empty error message.
func safePromiseCall(cb PromiseCallback, v value.Value) (inner Promise, errMsg string) {
	defer func() {
		if rec := recover(); rec != nil {
			xlog.Write().Warn("promise continuation panicked", zap.Any("recover", rec))
			errMsg = fmt.Sprintf("%v", rec)
		}
	}()
	inner = cb(v)
	if inner.s == nil {
		return inner, "promise continuation returned no promise"
	}
	return inner, ""
}

// Then registers cb to run when the parent settles to Value, returning a
// child Promise fulfilled with cb's result. If cb panics, the child
// settles to Error with the panic's message. If the parent settles to
// Error, the child settles to the same Error (error fall-through).
func (p Promise) Then(cb ValueCallback) Promise {
	child := New(p.s.scheduler)
	p.registerValue(func(v value.Value) {
		child.SetResult(safeCall(cb, v))
	})
	p.registerError(func(e string) {
		child.SetResult(value.NewError(e))
	})
	return child
}

// ThenPromise registers cb to run when the parent settles to Value,
// returning a child Promise whose result is linked to the Promise cb
// returns (chain-flattening): the child mirrors whatever the inner
// Promise eventually settles to. If cb panics, the child settles to
// Error with the panic's message.
func (p Promise) ThenPromise(cb PromiseCallback) Promise {
	child := New(p.s.scheduler)
	p.registerValue(func(v value.Value) {
		inner, errMsg := safePromiseCall(cb, v)
		if errMsg != "" {
			child.SetResult(value.NewError(errMsg))
			return
		}
		inner.registerValue(func(iv value.Value) { child.SetResult(value.NewValue(iv)) })
		inner.registerError(func(ie string) { child.SetResult(value.NewError(ie)) })
	})
	p.registerError(func(e string) {
		child.SetResult(value.NewError(e))
	})
	return child
}

// Fail registers a terminal consumer of the Promise's error; it does not
// return a child Promise.
func (p Promise) Fail(cb ErrorCallback) {
	p.registerError(cb)
}
