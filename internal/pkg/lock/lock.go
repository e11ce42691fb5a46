package lock

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

//go:embed lua/unlock.lua
var unlockScript string

const keyPrefix = "lock:"

// ErrNotHeld 释放锁时发现自己已经不是持有者（租约过期后锁被别人拿走了）
var ErrNotHeld = errors.New("未持有分布式锁")

// Lock 基于redis实现的分布式互斥锁
// 获取锁: SET lock:<name> <owner> NX EX <lease>
// 释放锁: lua脚本里校验owner一致后再DEL。不能先GET再DEL，
// 两步之间锁可能过期并被其他人获取，会把别人的锁删掉
type Lock struct {
	client redis.Cmdable
	name   string
	owner  string
}

// NewLock 创建一把名为name的锁。owner在每个Lock实例内唯一，
// 保证只有获取锁的这一方能释放它
func NewLock(client redis.Cmdable, name string) *Lock {
	return &Lock{
		client: client,
		name:   name,
		owner:  uuid.Must(uuid.NewV4()).String(),
	}
}

// TryLock 尝试获取锁，单次尝试，不阻塞不重试
// 返回false表示锁被别人持有，这不是错误，重试还是放弃由调用方决定
// 租约到期自动释放是唯一的死锁恢复手段，这里没有续约机制
func (l *Lock) TryLock(ctx context.Context, lease time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.key(), l.owner, lease).Result()
}

// Unlock 释放锁。整个校验+删除在redis服务端原子执行
func (l *Lock) Unlock(ctx context.Context) error {
	res, err := l.client.Eval(ctx, unlockScript, []string{l.key()}, l.owner).Int64()
	if err != nil {
		return err
	}
	if res == 0 {
		return fmt.Errorf("%w: %s", ErrNotHeld, l.name)
	}
	return nil
}

func (l *Lock) key() string {
	return keyPrefix + l.name
}
