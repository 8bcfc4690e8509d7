package solidcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "png170,211,223,255")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "png170,211,223,255", []byte("ocean")))
	got, ok, err := c.Get(ctx, "png170,211,223,255")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("ocean"), got)

	// Last write wins.
	require.NoError(t, c.Set(ctx, "png170,211,223,255", []byte("ocean2")))
	got, _, _ = c.Get(ctx, "png170,211,223,255")
	require.Equal(t, []byte("ocean2"), got)
}

func TestMap(t *testing.T) {
	m := NewMap()
	exerciseCache(t, m)
	require.Equal(t, 1, m.Len())
}

func TestLRU(t *testing.T) {
	l := NewLRU(16)
	defer l.Close()
	exerciseCache(t, l)
}

func TestNew_SelectsPolicy(t *testing.T) {
	require.IsType(t, &Map{}, New(0))
	lru := New(8)
	require.IsType(t, &LRU{}, lru)
	lru.(*LRU).Close()
}

func TestMap_ConcurrentSameKey(t *testing.T) {
	m := NewMap()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Set(context.Background(), "k", []byte("same"))
			_, _, _ = m.Get(context.Background(), "k")
		}()
	}
	wg.Wait()
	require.Equal(t, 1, m.Len())
}

type failingCache struct{ err error }

func (f failingCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingCache) Set(context.Context, string, []byte) error         { return f.err }

func TestTiered(t *testing.T) {
	ctx := context.Background()
	local, remote := NewMap(), NewMap()
	tc := NewTiered(local, remote)
	exerciseCache(t, tc)

	// Remote hit backfills local.
	require.NoError(t, remote.Set(ctx, "grid7", []byte("g")))
	got, ok, err := tc.Get(ctx, "grid7")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("g"), got)
	_, ok, _ = local.Get(ctx, "grid7")
	require.True(t, ok)
}

func TestTiered_RemoteErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("down")
	tc := NewTiered(NewMap(), failingCache{err: boom})

	_, ok, err := tc.Get(ctx, "x")
	require.ErrorIs(t, err, boom)
	require.False(t, ok)

	err = tc.Set(ctx, "x", []byte("v"))
	require.ErrorIs(t, err, boom)
	// The local tier still took the write.
	got, ok, err := tc.Get(ctx, "x")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), got)
}

// TestRedis runs against a live server named by METATILER_TEST_REDIS.
func TestRedis(t *testing.T) {
	addr := os.Getenv("METATILER_TEST_REDIS")
	if addr == "" {
		t.Skip("METATILER_TEST_REDIS not set")
	}
	r, err := NewRedis(RedisOptions{
		Addr:   addr,
		Prefix: fmt.Sprintf("metatiler:test:%d:", time.Now().UnixNano()),
		TTL:    time.Minute,
	})
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, r.Ping(context.Background()))
	exerciseCache(t, r)
}

func TestNewRedis_EmptyAddr(t *testing.T) {
	_, err := NewRedis(RedisOptions{})
	require.Error(t, err)
}
