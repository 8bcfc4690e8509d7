package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type resource struct{ id int64 }

func counterFactory(n *atomic.Int64) Factory[*resource] {
	return func() (*resource, error) {
		return &resource{id: n.Add(1)}, nil
	}
}

func TestPool_ReusesReleased(t *testing.T) {
	var created atomic.Int64
	p := New(Options[*resource]{Size: 2, Factory: counterFactory(&created)})

	a, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, p.InUse())
	p.Release(a)
	require.Equal(t, 0, p.InUse())

	b, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Equal(t, int64(1), created.Load())
	p.Release(b)
}

func TestPool_BlocksAtCapacity(t *testing.T) {
	var created atomic.Int64
	p := New(Options[*resource]{Size: 1, Factory: counterFactory(&created)})

	a, err := p.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	done := make(chan *resource)
	go func() {
		v, err := p.Acquire(context.Background())
		if err == nil {
			done <- v
		}
	}()
	p.Release(a)
	select {
	case v := <-done:
		require.Same(t, a, v)
		p.Release(v)
	case <-time.After(time.Second):
		t.Fatal("waiting Acquire was not woken by Release")
	}
}

func TestPool_FactoryErrorFreesSlot(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	p := New(Options[*resource]{Size: 1, Factory: func() (*resource, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return &resource{}, nil
	}})

	_, err := p.Acquire(context.Background())
	require.ErrorIs(t, err, ErrFactory)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, p.InUse())

	v, err := p.Acquire(context.Background())
	require.NoError(t, err)
	p.Release(v)
}

func TestPool_Drain(t *testing.T) {
	var created, destroyed atomic.Int64
	p := New(Options[*resource]{
		Size:    3,
		Factory: counterFactory(&created),
		Destroy: func(*resource) { destroyed.Add(1) },
	})

	a, _ := p.Acquire(context.Background())
	b, _ := p.Acquire(context.Background())
	p.Release(a)

	drained := make(chan error)
	go func() { drained <- p.Drain(context.Background()) }()

	// Drain waits for b.
	select {
	case <-drained:
		t.Fatal("Drain returned while a resource was still lent out")
	case <-time.After(20 * time.Millisecond):
	}
	p.Release(b)
	require.NoError(t, <-drained)
	require.Equal(t, int64(2), destroyed.Load())

	_, err := p.Acquire(context.Background())
	require.ErrorIs(t, err, ErrDraining)
}
