// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package workerpool runs items through a handler on a fixed number of goroutines.
//
// Submissions never block on capacity: items wait in an unbounded FIFO until a
// worker is free. Shutdown stops new submissions, lets the workers drain what is
// already queued and waits for them to return.
package workerpool

import (
	"context"
	"errors"
	"sync"

	"github.com/matt-FFFFFF/gentests/internal/ctxlog"
)

var (
	// ErrInvalidSize is returned by New when size < 1.
	ErrInvalidSize = errors.New("worker pool size must be at least 1")
	// ErrPoolClosed is returned by Submit after Shutdown.
	ErrPoolClosed = errors.New("worker pool is shut down")
)

// Handler processes one item. It is called with the context given to New.
type Handler[T any] func(ctx context.Context, item T)

// Pool is a fixed-size set of workers fed from a queue.
type Pool[T any] struct {
	ctx     context.Context
	handler Handler[T]
	size    int

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	closed bool
	busy   int

	wg       sync.WaitGroup
	shutdown sync.Once
}

// New starts size workers that call handler for each submitted item.
func New[T any](ctx context.Context, size int, handler func(ctx context.Context, item T)) (*Pool[T], error) {
	if size < 1 {
		return nil, ErrInvalidSize
	}

	p := &Pool[T]{
		ctx:     ctx,
		handler: handler,
		size:    size,
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(size)

	for id := range size {
		go p.work(id)
	}

	ctxlog.Debug(ctx, "worker pool started", "workers", size)

	return p, nil
}

// Submit queues item. It does not wait for a free worker.
func (p *Pool[T]) Submit(item T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	p.queue = append(p.queue, item)
	p.cond.Signal()

	return nil
}

// Shutdown stops accepting items and blocks until every queued and running item
// has been handled. It is safe to call more than once.
func (p *Pool[T]) Shutdown() {
	p.shutdown.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.cond.Broadcast()
		p.mu.Unlock()
	})

	p.wg.Wait()
}

// Size returns the number of workers.
func (p *Pool[T]) Size() int {
	return p.size
}

// Stats returns the number of queued items and the number being handled.
func (p *Pool[T]) Stats() (queued, busy int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.queue), p.busy
}

func (p *Pool[T]) work(id int) {
	defer p.wg.Done()

	for {
		item, ok := p.next()
		if !ok {
			ctxlog.Debug(p.ctx, "worker exiting", "worker", id)
			return
		}

		p.handler(p.ctx, item)

		p.mu.Lock()
		p.busy--
		p.mu.Unlock()
	}
}

// next blocks until an item is available or the pool is closed and drained.
func (p *Pool[T]) next() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}

	var zero T

	if len(p.queue) == 0 {
		return zero, false
	}

	item := p.queue[0]
	p.queue[0] = zero
	p.queue = p.queue[1:]
	p.busy++

	return item, true
}
