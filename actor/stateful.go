package actor

import "github.com/czx-lab/traeger/value"

// StatefulActor[S] is a StatelessActor whose registered methods close
// over a shared state object of type S.
type StatefulActor[S any] struct {
	*StatelessActor
	state *S
}

// NewStateful constructs a StatefulActor wrapping state. state is never
// copied — every registered method observes and mutates the same object,
// with the actor's RW lock providing the reader/writer exclusion that
// makes that safe.
func NewStateful[S any](state *S, opts ...Option) *StatefulActor[S] {
	return &StatefulActor[S]{StatelessActor: New(opts...), state: state}
}

// State returns the wrapped state object.
func (a *StatefulActor[S]) State() *S { return a.state }

// StateFunc is a method body with access to the actor's state.
type StateFunc[S any] func(state *S, args value.List) value.Result

// DefineReader registers name as a Shared method with access to state.
func DefineReader[S any](a *StatefulActor[S], name string, fn StateFunc[S]) {
	a.StatelessActor.DefineReader(name, func(args value.List) value.Result {
		return fn(a.state, args)
	})
}

// DefineWriter registers name as an Exclusive method with access to
// state.
func DefineWriter[S any](a *StatefulActor[S], name string, fn StateFunc[S]) {
	a.StatelessActor.DefineWriter(name, func(args value.List) value.Result {
		return fn(a.state, args)
	})
}
