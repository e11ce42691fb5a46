package idgen

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return NewGenerator(client)
}

func TestGenerator_NextID_Layout(t *testing.T) {
	g := newTestGenerator(t)
	// 固定时钟，方便校验时间戳和序列号两部分
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	id, err := g.NextID(context.Background(), "order")
	require.NoError(t, err)

	wantTimestamp := now.Unix() - beginTimestamp
	assert.Equal(t, wantTimestamp, id>>countBits)
	assert.Equal(t, int64(1), id&((1<<countBits)-1))

	// 同一秒内的第二个id序列号递增
	id2, err := g.NextID(context.Background(), "order")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id2&((1<<countBits)-1))
	assert.Greater(t, id2, id)
}

func TestGenerator_NextID_DailyCounterReset(t *testing.T) {
	g := newTestGenerator(t)
	day1 := time.Date(2024, 6, 1, 23, 59, 59, 0, time.UTC)
	g.now = func() time.Time { return day1 }

	id1, err := g.NextID(context.Background(), "order")
	require.NoError(t, err)

	// 跨天之后序列号key换了，从1重新开始，但时间戳部分保证整体递增
	day2 := day1.Add(time.Second)
	g.now = func() time.Time { return day2 }

	id2, err := g.NextID(context.Background(), "order")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id2&((1<<countBits)-1))
	assert.Greater(t, id2, id1)
}

func TestGenerator_NextID_ConcurrentUnique(t *testing.T) {
	g := newTestGenerator(t)

	const (
		workers = 50
		perWork = 200
	)
	var (
		mu  sync.Mutex
		ids = make(map[int64]struct{}, workers*perWork)
		wg  sync.WaitGroup
	)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWork)
			for j := 0; j < perWork; j++ {
				id, err := g.NextID(context.Background(), "order")
				assert.NoError(t, err)
				local = append(local, id)
			}
			mu.Lock()
			for _, id := range local {
				ids[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	// 唯一性只依赖INCR，并发下不允许有任何重复
	assert.Len(t, ids, workers*perWork)
}

func TestGenerator_NextID_NamespaceIsolated(t *testing.T) {
	g := newTestGenerator(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	id1, err := g.NextID(context.Background(), "order")
	require.NoError(t, err)
	id2, err := g.NextID(context.Background(), "shop")
	require.NoError(t, err)

	// 不同namespace各自计数，序列号都从1开始
	assert.Equal(t, int64(1), id1&((1<<countBits)-1))
	assert.Equal(t, int64(1), id2&((1<<countBits)-1))
}

func TestSnowflake_GenerateID_Unique(t *testing.T) {
	s := NewSnowflake()

	ids := make(map[int64]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		ids[s.GenerateID("13800138000")] = struct{}{}
	}
	assert.Len(t, ids, 1000)
}
