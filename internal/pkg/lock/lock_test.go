package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (redis.Cmdable, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

func TestLock_TryLock(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	l := NewLock(client, "order:1001")
	ok, err := l.TryLock(ctx, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// 同名锁的第二个持有者拿不到，返回false而不是error
	other := NewLock(client, "order:1001")
	ok, err = other.TryLock(ctx, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLock_UnlockAllowsReacquire(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	l := NewLock(client, "order:1001")
	ok, err := l.TryLock(ctx, 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Unlock(ctx))

	other := NewLock(client, "order:1001")
	ok, err = other.TryLock(ctx, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_LeaseExpiry(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	l := NewLock(client, "order:1001")
	ok, err := l.TryLock(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// 租约到期后锁自动释放，其他人可以获取
	mr.FastForward(2 * time.Second)

	other := NewLock(client, "order:1001")
	ok, err = other.TryLock(ctx, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_UnlockByNonOwnerKeepsLock(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	first := NewLock(client, "order:1001")
	ok, err := first.TryLock(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// 第一个持有者的租约过期，锁被第二个持有者重新获取
	mr.FastForward(2 * time.Second)
	second := NewLock(client, "order:1001")
	ok, err = second.TryLock(ctx, 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// 第一个持有者迟到的Unlock不能删掉第二个持有者的锁
	err = first.Unlock(ctx)
	assert.ErrorIs(t, err, ErrNotHeld)

	got, err := client.Get(ctx, "lock:order:1001").Result()
	require.NoError(t, err)
	assert.Equal(t, second.owner, got)
}
