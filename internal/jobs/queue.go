// Package jobs runs repository operations off the UI goroutine. Read jobs
// share a bounded worker pool; mutating jobs use a single-slot lane next to
// it. Every submitted job produces exactly one Result.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers = 3
	// MutationKey is the key mutating jobs are stamped with when they do not
	// name one.
	MutationKey Key = "mutation"
)

type Handle uint64

type Job struct {
	Kind     string
	Key      Key
	Mutating bool
	// Invalidates is bumped when a mutating job finishes so in-flight reads
	// of those keys come back stale.
	Invalidates []Key
	Run         func(ctx context.Context) (any, error)
}

type Result struct {
	Handle     Handle
	Kind       string
	Key        Key
	Generation Generation
	Mutating   bool
	Payload    any
	Err        error
}

type task struct {
	handle Handle
	job    Job
	gen    Generation
	ctx    context.Context
	cancel context.CancelCauseFunc
}

type Queue struct {
	tracker *Tracker
	group   errgroup.Group
	out     *outbox

	mu       sync.Mutex
	cond     *sync.Cond
	closed   bool
	seq      Handle
	pending  []*task
	inflight map[Key]*task
	tasks    map[Handle]*task
	mutation *task
}

// New starts workers goroutines pulling read jobs. A nil tracker gets a
// fresh one.
func New(workers int, tracker *Tracker) *Queue {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if tracker == nil {
		tracker = NewTracker(0)
	}
	q := &Queue{
		tracker:  tracker,
		out:      newOutbox(),
		inflight: map[Key]*task{},
		tasks:    map[Handle]*task{},
	}
	q.cond = sync.NewCond(&q.mu)
	for range workers {
		q.group.Go(q.worker)
	}
	return q
}

func (q *Queue) Tracker() *Tracker { return q.tracker }

// Results delivers one Result per submitted job. The channel is closed after
// Close once every result has been received.
func (q *Queue) Results() <-chan Result { return q.out.ch }

// Submit stamps job with a fresh generation for its key and schedules it.
// An earlier read job for the same key is superseded. A mutating job is
// rejected with ErrBusy while another mutation is running.
func (q *Queue) Submit(job Job) (Handle, error) {
	if job.Run == nil {
		return 0, fmt.Errorf("submit %s: job has no Run func", job.Kind)
	}
	if job.Mutating && job.Key == "" {
		job.Key = MutationKey
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0, ErrClosed
	}
	if job.Mutating && q.mutation != nil {
		slog.Debug("job rejected", slog.String("kind", job.Kind), slog.String("running", q.mutation.job.Kind))
		return 0, ErrBusy
	}

	q.seq++
	ctx, cancel := context.WithCancelCause(context.Background())
	t := &task{
		handle: q.seq,
		job:    job,
		gen:    q.tracker.Next(job.Key),
		ctx:    ctx,
		cancel: cancel,
	}
	q.tasks[t.handle] = t
	slog.Debug("job submitted",
		slog.String("kind", job.Kind),
		slog.String("key", string(job.Key)),
		slog.String("generation", t.gen.String()),
		slog.Bool("mutating", job.Mutating),
	)

	if job.Mutating {
		q.mutation = t
		q.group.Go(func() error {
			q.run(t)
			return nil
		})
		return t.handle, nil
	}

	if old := q.inflight[job.Key]; old != nil {
		old.cancel(ErrSuperseded)
	}
	q.inflight[job.Key] = t
	q.pending = append(q.pending, t)
	q.cond.Signal()
	return t.handle, nil
}

// Cancel requests cooperative cancellation. The job still yields a Result
// carrying ErrCancelled. Unknown or finished handles are ignored.
func (q *Queue) Cancel(h Handle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t := q.tasks[h]; t != nil {
		t.cancel(ErrCancelled)
	}
}

// Outstanding reports whether a job for key is queued or running.
func (q *Queue) Outstanding(key Key) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.mutation != nil && q.mutation.job.Key == key {
		return true
	}
	return q.inflight[key] != nil
}

// OutstandingCurrent reports whether a read for key is queued or running
// and its result will still be current. A mutation that invalidated key
// since the read was submitted makes it false.
func (q *Queue) OutstandingCurrent(key Key) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	t := q.inflight[key]
	return t != nil && q.tracker.IsCurrent(key, t.gen)
}

// Len is the number of submitted jobs whose Result has not been produced
// yet.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// MutationInFlight reports whether the mutation lane is occupied.
func (q *Queue) MutationInFlight() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mutation != nil
}

// Close cancels everything outstanding and waits for the workers to drain.
// Pending jobs are reported as cancelled.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for _, t := range q.tasks {
		t.cancel(ErrCancelled)
	}
	q.cond.Broadcast()
	q.mu.Unlock()

	_ = q.group.Wait()
	q.out.close()
}

func (q *Queue) worker() error {
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return nil
		}
		t := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.run(t)
	}
}

func (q *Queue) run(t *task) {
	res := Result{
		Handle:     t.handle,
		Kind:       t.job.Kind,
		Key:        t.job.Key,
		Generation: t.gen,
		Mutating:   t.job.Mutating,
	}
	if t.ctx.Err() == nil {
		payload, err := t.job.Run(t.ctx)
		res.Payload, res.Err = payload, err
	}
	if t.ctx.Err() != nil {
		// a late success of a cancelled job is discarded
		res.Payload = nil
		res.Err = context.Cause(t.ctx)
	}
	if res.Err != nil {
		res.Err = &Error{Kind: t.job.Kind, Key: t.job.Key, Err: res.Err}
	}
	t.cancel(nil)
	q.finish(t, res)
}

func (q *Queue) finish(t *task, res Result) {
	q.mu.Lock()
	delete(q.tasks, t.handle)
	if q.inflight[t.job.Key] == t {
		delete(q.inflight, t.job.Key)
	}
	if t.job.Mutating {
		q.tracker.Bump(t.job.Invalidates...)
		q.mutation = nil
	}
	q.mu.Unlock()

	attrs := []any{
		slog.String("kind", res.Kind),
		slog.String("key", string(res.Key)),
		slog.String("generation", res.Generation.String()),
	}
	switch {
	case res.Err == nil:
		slog.Debug("job done", attrs...)
	case Silent(res.Err):
		slog.Debug("job dropped", append(attrs, slog.Any("reason", errors.Unwrap(res.Err)))...)
	default:
		slog.Debug("job failed", append(attrs, slog.Any("error", res.Err))...)
	}
	q.out.push(res)
}

// outbox buffers results so workers never block on a slow consumer.
type outbox struct {
	ch     chan Result
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Result
	closed bool
}

func newOutbox() *outbox {
	o := &outbox{ch: make(chan Result)}
	o.cond = sync.NewCond(&o.mu)
	go o.pump()
	return o
}

func (o *outbox) push(r Result) {
	o.mu.Lock()
	o.items = append(o.items, r)
	o.mu.Unlock()
	o.cond.Signal()
}

func (o *outbox) close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.cond.Signal()
}

func (o *outbox) pump() {
	for {
		o.mu.Lock()
		for len(o.items) == 0 && !o.closed {
			o.cond.Wait()
		}
		if len(o.items) == 0 {
			o.mu.Unlock()
			close(o.ch)
			return
		}
		r := o.items[0]
		o.items = o.items[1:]
		o.mu.Unlock()
		o.ch <- r
	}
}
