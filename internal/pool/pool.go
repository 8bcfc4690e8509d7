// Package pool lends out a bounded number of reusable resources, such as
// rendering engines, created on demand by a factory.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDraining is returned by Acquire once Drain has been called.
	ErrDraining = errors.New("pool is draining")
	// ErrFactory wraps failures to create a new resource.
	ErrFactory = errors.New("pool factory failed")
)

// Factory creates a new resource.
type Factory[T any] func() (T, error)

// Options configures a Pool.
type Options[T any] struct {
	// Size is the maximum number of resources lent out at once.
	Size int
	// Factory creates resources lazily, up to Size.
	Factory Factory[T]
	// Destroy, if set, is called for idle resources on Drain.
	Destroy func(T)
}

// Pool is a fixed-size resource pool. Each successful Acquire must be paired
// with exactly one Release.
type Pool[T any] struct {
	slots   chan struct{}
	idle    chan T
	factory Factory[T]
	destroy func(T)

	mu       sync.Mutex
	draining bool
}

// New creates a pool. Size defaults to 1.
func New[T any](opts Options[T]) *Pool[T] {
	size := opts.Size
	if size < 1 {
		size = 1
	}
	return &Pool[T]{
		slots:   make(chan struct{}, size),
		idle:    make(chan T, size),
		factory: opts.Factory,
		destroy: opts.Destroy,
	}
}

// Size returns the maximum number of concurrently lent resources.
func (p *Pool[T]) Size() int { return cap(p.slots) }

// InUse returns the number of resources currently lent out.
func (p *Pool[T]) InUse() int { return len(p.slots) }

// Acquire blocks until a resource is available or ctx is done.
func (p *Pool[T]) Acquire(ctx context.Context) (T, error) {
	var zero T
	p.mu.Lock()
	draining := p.draining
	p.mu.Unlock()
	if draining {
		return zero, ErrDraining
	}

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case v := <-p.idle:
		return v, nil
	default:
	}

	if p.factory == nil {
		<-p.slots
		return zero, fmt.Errorf("%w: no factory configured", ErrFactory)
	}
	v, err := p.factory()
	if err != nil {
		<-p.slots
		return zero, fmt.Errorf("%w: %w", ErrFactory, err)
	}
	return v, nil
}

// Release returns a resource obtained from Acquire. Releasing a resource
// twice corrupts the pool's accounting.
func (p *Pool[T]) Release(v T) {
	p.idle <- v
	<-p.slots
}

// Drain stops further acquisitions, waits for lent resources to come back
// (or ctx to end), and destroys the idle ones.
func (p *Pool[T]) Drain(ctx context.Context) error {
	p.mu.Lock()
	p.draining = true
	p.mu.Unlock()

	for i := 0; i < cap(p.slots); i++ {
		select {
		case p.slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for {
		select {
		case v := <-p.idle:
			if p.destroy != nil {
				p.destroy(v)
			}
		default:
			return nil
		}
	}
}
