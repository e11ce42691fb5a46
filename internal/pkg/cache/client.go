package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/EERN0/dianping/internal/pkg/lock"
	"github.com/gotomicro/ego/core/elog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	// nullTTL 空值哨兵的过期时间，比正常数据短，防止数据库后来有值时长时间查不到
	nullTTL = 2 * time.Minute
	// rebuildLockLease 重建缓存互斥锁的租约
	rebuildLockLease = 10 * time.Second
	// rebuildTimeout 异步重建的超时，脱离调用方ctx后重建goroutine的上限
	rebuildTimeout = 30 * time.Second
)

var (
	lookupCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookup_total",
			Help: "Total number of cache lookups by result",
		},
		[]string{"result"},
	)

	rebuildCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_rebuild_total",
			Help: "Total number of async cache rebuilds triggered",
		},
	)
)

func init() {
	prometheus.MustRegister(lookupCounter, rebuildCounter)
}

// redisData 带逻辑过期时间的缓存数据envelope
// 过期完全由应用侧读这个时间戳判断，redis里不设TTL，热点key只会被覆盖不会消失
type redisData struct {
	ExpireTime time.Time       `json:"expireTime"`
	Data       json.RawMessage `json:"data"`
}

// Client 通用缓存客户端，封装两类读策略：
//   - Fetch: 缓存空值哨兵解决缓存穿透，一定回源
//   - FetchWithLogicalExpire: 逻辑过期解决缓存击穿，只适用于预热过的热点key
type Client struct {
	client redis.Cmdable
	logger *elog.Component
	now    func() time.Time
}

func NewClient(client redis.Cmdable) *Client {
	return &Client{
		client: client,
		logger: elog.DefaultLogger.With(elog.String("component", "cache")),
		now:    time.Now,
	}
}

// Set 序列化为json写入缓存，带TTL
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// SetWithLogicalExpire 序列化为json写入缓存，过期时间嵌在value里，key本身不设TTL
// 用于预热热点key，配合FetchWithLogicalExpire使用
func (c *Client) SetWithLogicalExpire(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(redisData{
		ExpireTime: c.now().Add(ttl),
		Data:       data,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, 0).Err()
}

// Delete 删除缓存，写数据库后调用，保证下次读取回源
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Fetch 按 keyPrefix+id 查缓存，未命中时通过loader回源并写缓存
// 缓存空值哨兵（空字符串）解决缓存穿透：数据库确认不存在的id会缓存一个空值，
// 哨兵命中时直接返回"不存在"，不再打到数据库
// loader返回(nil, nil)表示数据源中确认不存在
func Fetch[T any](ctx context.Context, c *Client, keyPrefix string, id int64,
	ttl time.Duration, loader func(ctx context.Context, id int64) (*T, error),
) (*T, error) {
	key := fmt.Sprintf("%s%d", keyPrefix, id)

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if val == "" {
			// 空值哨兵命中：数据源确认不存在，不再回源
			lookupCounter.WithLabelValues("sentinel").Inc()
			return nil, nil
		}
		var v T
		if uerr := json.Unmarshal([]byte(val), &v); uerr == nil {
			lookupCounter.WithLabelValues("hit").Inc()
			return &v, nil
		}
		// 脏数据当作未命中处理，回源覆盖
		c.logger.Warn("缓存数据损坏，按未命中重建", elog.String("key", key))
	case errors.Is(err, redis.Nil):
		// 未命中
	default:
		return nil, err
	}
	lookupCounter.WithLabelValues("miss").Inc()

	v, err := loader(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		// 数据库也没有，写入空值哨兵
		if serr := c.client.Set(ctx, key, "", nullTTL).Err(); serr != nil {
			c.logger.Warn("写入空值哨兵失败", elog.String("key", key), elog.FieldErr(serr))
		}
		return nil, nil
	}
	if serr := c.Set(ctx, key, v, ttl); serr != nil {
		// 回填失败不影响本次结果
		c.logger.Warn("回填缓存失败", elog.String("key", key), elog.FieldErr(serr))
	}
	return v, nil
}

// FetchWithLogicalExpire 按逻辑过期时间查缓存，解决热点key的缓存击穿
//   - 未命中: 返回nil。这条路径默认key已经预热过，查不到说明不是热点key，不回源
//   - 未过期: 直接返回
//   - 已过期: 尝试获取重建锁，拿到锁的调用方double check后异步重建，
//     所有调用方（包括正在重建的）立刻返回旧数据，优先保证可用性
//
// 同一个key任意时刻至多一个重建goroutine，由分布式锁保证
func FetchWithLogicalExpire[T any](ctx context.Context, c *Client, keyPrefix string, id int64,
	ttl time.Duration, loader func(ctx context.Context, id int64) (*T, error),
) (*T, error) {
	key := fmt.Sprintf("%s%d", keyPrefix, id)

	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// 没预热过的key不算错误
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	stale, expireTime, ok := decodeLogical[T](c, []byte(val), key)
	if !ok {
		return nil, nil
	}
	if expireTime.After(c.now()) {
		lookupCounter.WithLabelValues("hit").Inc()
		return stale, nil
	}

	// 逻辑过期，竞争重建锁
	rebuildLock := lock.NewLock(c.client, "rebuild:"+key)
	acquired, lerr := rebuildLock.TryLock(ctx, rebuildLockLease)
	if lerr != nil {
		c.logger.Warn("获取缓存重建锁失败", elog.String("key", key), elog.FieldErr(lerr))
		return stale, nil
	}
	if !acquired {
		// 别人正在重建，直接返回旧数据
		return stale, nil
	}

	// double check：拿到锁之前可能已经有人重建完成了
	if val2, gerr := c.client.Get(ctx, key).Result(); gerr == nil {
		if fresh, expire2, ok2 := decodeLogical[T](c, []byte(val2), key); ok2 && expire2.After(c.now()) {
			if uerr := rebuildLock.Unlock(ctx); uerr != nil {
				c.logger.Warn("释放缓存重建锁失败", elog.String("key", key), elog.FieldErr(uerr))
			}
			return fresh, nil
		}
	}

	// 确认过期，异步重建。调用方不等待，先拿旧数据走
	rebuildCounter.Inc()
	go func() {
		// 重建不能被请求的取消/超时打断，脱离原ctx单独限时
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rebuildTimeout)
		defer cancel()
		defer func() {
			if uerr := rebuildLock.Unlock(rctx); uerr != nil {
				c.logger.Warn("释放缓存重建锁失败", elog.String("key", key), elog.FieldErr(uerr))
			}
		}()

		fresh, lderr := loader(rctx, id)
		if lderr != nil {
			c.logger.Error("缓存重建回源失败", elog.String("key", key), elog.FieldErr(lderr))
			return
		}
		if fresh == nil {
			// 数据源里已经没有这条数据了，删掉key让后续读取按冷key处理，
			// 不能把null写回去，那会被解码成零值当真实数据返回
			if derr := c.client.Del(rctx, key).Err(); derr != nil {
				c.logger.Error("缓存重建删除失效key失败", elog.String("key", key), elog.FieldErr(derr))
			}
			return
		}
		if serr := c.SetWithLogicalExpire(rctx, key, fresh, ttl); serr != nil {
			c.logger.Error("缓存重建写入失败", elog.String("key", key), elog.FieldErr(serr))
		}
	}()

	return stale, nil
}

// decodeLogical 解析带逻辑过期时间的缓存数据，脏数据按未命中处理
func decodeLogical[T any](c *Client, raw []byte, key string) (*T, time.Time, bool) {
	var rd redisData
	if err := json.Unmarshal(raw, &rd); err != nil {
		c.logger.Warn("缓存数据损坏", elog.String("key", key), elog.FieldErr(err))
		return nil, time.Time{}, false
	}
	var v T
	if err := json.Unmarshal(rd.Data, &v); err != nil {
		c.logger.Warn("缓存数据损坏", elog.String("key", key), elog.FieldErr(err))
		return nil, time.Time{}, false
	}
	return &v, rd.ExpireTime, true
}
