package tts

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// Pool runs blocking calls on a fixed set of workers fed by a bounded task
// queue.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool starts workers goroutines. queue is the number of tasks that may
// wait for a free worker before Submit blocks.
func NewPool(workers, queue int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	p := &Pool{tasks: make(chan func(), queue)}
	p.wg.Add(workers)
	for range workers {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

type result[T any] struct {
	val T
	err error
}

// Submit runs fn on p and waits for its result or for ctx to end. When ctx
// ends first the zero value and ctx.Err() are returned; fn still runs to
// completion if it already started, and its result is dropped. A panic in
// fn is returned as an error.
func Submit[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	done := make(chan result[T], 1)
	task := func() {
		if err := ctx.Err(); err != nil {
			done <- result[T]{err: err}
			return
		}
		defer func() {
			if r := recover(); r != nil {
				done <- result[T]{err: fmt.Errorf("task panicked: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- result[T]{val: v, err: err}
	}

	if err := p.enqueue(ctx, task); err != nil {
		return zero, err
	}

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (p *Pool) enqueue(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for queued and running tasks to
// finish, or for ctx to end.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
