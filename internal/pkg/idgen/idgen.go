package idgen

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// beginTimestamp 起始时间戳，2024-01-01 00:00:00 UTC
	beginTimestamp = 1704067200
	// countBits 序列号占的位数
	countBits = 32
)

// Generator 分布式全局ID生成器
// 生成的id格式: 符号位(1bit) + 时间戳(31bit，单位秒) + 当天序列号(32bit)
// 序列号按天分key自增，一天内不会用完32bit，同时方便按天统计单量
// 唯一性只依赖redis INCR的原子性，不依赖各节点的时钟
type Generator struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewGenerator(client redis.Cmdable) *Generator {
	return &Generator{
		client: client,
		now:    time.Now,
	}
}

// NextID 生成namespace业务下的全局唯一ID
func (g *Generator) NextID(ctx context.Context, namespace string) (int64, error) {
	now := g.now().UTC()
	// 时间戳部分 = 当前秒级时间戳 - 起始时间戳
	timestamp := now.Unix() - beginTimestamp

	// 序列号部分，key精确到天，每天从1重新计数
	date := now.Format("2006:01:02")
	count, err := g.client.Incr(ctx, fmt.Sprintf("icr:%s:%s", namespace, date)).Result()
	if err != nil {
		return 0, err
	}

	return timestamp<<countBits | count, nil
}
