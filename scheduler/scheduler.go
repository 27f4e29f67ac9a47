// Package scheduler implements a fixed-size worker-thread pool executing
// arbitrary work items from an immediate FIFO queue and a delayed
// min-heap keyed by eligibility time.
package scheduler

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"
)

// Work is a unit of schedulable execution. Work items are expected to be
// total functions: the Scheduler offers no cancellation or preemption.
type Work func()

type delayedItem struct {
	when  time.Time
	work  Work
	index int
	seq   uint64
}

// delayedHeap orders by eligibility time, breaking ties by enqueue order
// so that equally-eligible work executes FIFO, matching container/cqueue's
// timestamp-tiebreak idiom.
type delayedHeap []*delayedItem

func (h delayedHeap) Len() int { return len(h) }
func (h delayedHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}
func (h delayedHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *delayedHeap) Push(x any) {
	item := x.(*delayedItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *delayedHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	item.index = -1
	*h = old[:n-1]
	return item
}

// Scheduler is a fixed worker-thread pool. Workers are spawned at
// construction and joined by Stop.
type Scheduler struct {
	mu        sync.Mutex
	cond      *sync.Cond
	immediate []Work
	delayed   delayedHeap
	shutdown  bool
	wg        sync.WaitGroup
	active    atomic.Int64
	seq       uint64
	extRefs   atomic.Int64
}

// New starts a Scheduler with n worker goroutines. n is clamped to at
// least 1.
func New(n int) *Scheduler {
	if n < 1 {
		n = 1
	}
	s := &Scheduler{}
	s.cond = sync.NewCond(&s.mu)
	s.wg.Add(n)
	for i := 0; i < n; i++ {
		go s.workerLoop()
	}
	return s
}

// Schedule appends work to the immediate queue and wakes one worker.
func (s *Scheduler) Schedule(work Work) {
	s.mu.Lock()
	s.immediate = append(s.immediate, work)
	s.mu.Unlock()
	s.cond.Signal()
}

// ScheduleDelayed inserts work into the delayed heap, eligible once d has
// elapsed, and wakes one worker.
func (s *Scheduler) ScheduleDelayed(d time.Duration, work Work) {
	s.mu.Lock()
	s.seq++
	heap.Push(&s.delayed, &delayedItem{when: time.Now().Add(d), work: work, seq: s.seq})
	s.mu.Unlock()
	s.cond.Signal()
}

// Count returns the number of outstanding items: immediate queue length,
// delayed heap length, in-flight active tasks, and external references
// acquired via AddRef beyond the Scheduler's own creation. Host code uses
// this as the sole "drain and exit" signal.
func (s *Scheduler) Count() int {
	s.mu.Lock()
	n := len(s.immediate) + len(s.delayed)
	s.mu.Unlock()
	return n + int(s.active.Load()) + int(s.extRefs.Load())
}

// AddRef records that some external handle is keeping this Scheduler
// alive beyond its own creation, so Count reflects it. Release undoes it.
func (s *Scheduler) AddRef()  { s.extRefs.Add(1) }
func (s *Scheduler) Release() { s.extRefs.Add(-1) }

// Stop signals shutdown and blocks until every worker has drained the
// immediate queue and exited. Delayed work that has not yet become
// eligible is discarded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	s.cond.Broadcast()
	s.wg.Wait()
}

func (s *Scheduler) workerLoop() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		work, ok := s.next()
		for !ok && !s.done() {
			switch wait := s.waitDuration(); {
			case wait > 0:
				timer := time.AfterFunc(wait, func() {
					s.mu.Lock()
					s.cond.Broadcast()
					s.mu.Unlock()
				})
				s.cond.Wait()
				timer.Stop()
			case len(s.delayed) > 0:
				// The head item came due between the failed pop and the
				// deadline computation; retry the pop without waiting.
			default:
				s.cond.Wait()
			}
			work, ok = s.next()
		}
		if !ok {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.active.Add(1)
		work()
		s.active.Add(-1)
	}
}

// next peeks/pops the next runnable work item under the lock: due delayed
// work preempts immediate work so delayed work never starves.
func (s *Scheduler) next() (Work, bool) {
	now := time.Now()
	if len(s.delayed) > 0 && !now.Before(s.delayed[0].when) {
		item := heap.Pop(&s.delayed).(*delayedItem)
		return item.work, true
	}
	if len(s.immediate) > 0 {
		work := s.immediate[0]
		s.immediate = s.immediate[1:]
		return work, true
	}
	return nil, false
}

// done reports whether shutdown has been requested and the immediate
// queue is empty — the exit condition for a worker. Delayed work that
// never became eligible before shutdown is abandoned.
func (s *Scheduler) done() bool {
	return s.shutdown && len(s.immediate) == 0
}

func (s *Scheduler) waitDuration() time.Duration {
	if len(s.delayed) == 0 {
		return 0
	}
	return time.Until(s.delayed[0].when)
}
