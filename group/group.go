// Package group implements a hierarchical, path-routed composite
// Mailbox: a persistent name-to-Mailbox map that forwards
// "member/rest" calls to the named member and re-wraps the result in a
// diagnostic envelope carrying a source breadcrumb.
package group

import (
	"strings"
	"sync/atomic"

	"github.com/czx-lab/traeger/actor"
	"github.com/czx-lab/traeger/promise"
	"github.com/czx-lab/traeger/scheduler"
	"github.com/czx-lab/traeger/value"
)

type memberTable map[string]actor.Mailbox

// Group is a persistent name -> Mailbox map plus a mailbox facade. A
// Group containing a Group composes into a multi-level path router with
// accumulating breadcrumbs.
type Group struct {
	members atomic.Pointer[memberTable]
}

// New constructs an empty Group.
func New() *Group {
	g := &Group{}
	empty := memberTable{}
	g.members.Store(&empty)
	return g
}

// Add registers name as routing to m, producing a new immutable
// snapshot. Mailboxes resolved from the Group before this call keep
// routing against the older member set.
func (g *Group) Add(name string, m actor.Mailbox) {
	for {
		old := g.members.Load()
		next := make(memberTable, len(*old)+1)
		for k, v := range *old {
			next[k] = v
		}
		next[name] = m
		if g.members.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Mailbox returns a Mailbox pinned to the member snapshot current as of
// this call.
func (g *Group) Mailbox() actor.Mailbox {
	return groupMailbox{members: g.members.Load()}
}

type groupMailbox struct {
	members *memberTable
}

// Send implements actor.Mailbox. path is split at its first '/': the
// prefix selects a member, the suffix is forwarded to it. The result is
// re-wrapped in a uniform diagnostic envelope so callers observe
// consistent {source,value,error} shape regardless of depth.
func (m groupMailbox) Send(sched *scheduler.Scheduler, path string, args value.List) promise.Promise {
	p := promise.New(sched)

	idx := strings.IndexByte(path, '/')
	if idx < 0 {
		p.SetResult(value.NewError("invalid path " + path))
		return p
	}
	prefix, suffix := path[:idx], path[idx+1:]

	member, ok := (*m.members)[prefix]
	if !ok {
		p.SetResult(value.NewError("no such group member " + prefix))
		return p
	}

	inner := member.Send(sched, suffix, args)
	inner.Then(func(v value.Value) value.Result {
		p.SetResult(value.NewValue(wrapSuccess(prefix, suffix, v)))
		return value.Undefined()
	})
	inner.Fail(func(e string) {
		p.SetResult(value.NewValue(wrapFailure(prefix, suffix, e)))
	})
	return p
}

// wrapSuccess implements the envelope precedence observed in the
// original: if v is already a Map carrying a "source" key, that key's
// value gets "<prefix>/" prepended in place and the rest of the Map is
// left untouched; otherwise a fresh envelope is built around v.
func wrapSuccess(prefix, suffix string, v value.Value) value.Value {
	if m, ok := v.GetMap(); ok {
		if src, ok := m.Find("source"); ok {
			if s, ok := src.GetString(); ok {
				m.Set("source", value.NewString(prefix+"/"+s))
				return value.FromMap(m)
			}
		}
	}
	return envelope(prefix+"/"+suffix, v, value.Null())
}

// wrapFailure always constructs a fresh envelope.
func wrapFailure(prefix, suffix, errMsg string) value.Value {
	return envelope(prefix+"/"+suffix, value.Null(), value.NewString(errMsg))
}

func envelope(source string, v, errValue value.Value) value.Value {
	m := value.NewMap()
	m.Set("source", value.NewString(source))
	m.Set("value", v)
	m.Set("error", errValue)
	return value.FromMap(m)
}
