package idgen

import (
	"hash/fnv"
	"sync/atomic"
	"time"
)

const (
	timestampBits = 41 // 时间戳位数
	shardBits     = 10 // 分片位数，由业务key的hash决定
	sequenceBits  = 12 // 序列号位数

	shardShift     = sequenceBits
	timestampShift = shardBits + sequenceBits

	sequenceMask  = (1 << sequenceBits) - 1
	shardMask     = (1 << shardBits) - 1
	timestampMask = (1 << timestampBits) - 1

	epochMillis = int64(1704067200000) // 2024-01-01 00:00:00 UTC
)

// Snowflake 进程内雪花算法变种，用于不需要全局有序、只要求不重复的场景
// （比如新注册用户的ID）。分布式有序ID走redis版的Generator
type Snowflake struct {
	sequence int64
}

func NewSnowflake() *Snowflake {
	return &Snowflake{}
}

// GenerateID 按 时间戳|业务key的hash|序列号 组装ID
func (s *Snowflake) GenerateID(key string) int64 {
	timestamp := time.Now().UnixMilli() - epochMillis

	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	shard := int64(h.Sum32()) & shardMask

	seq := (atomic.AddInt64(&s.sequence, 1) - 1) & sequenceMask

	return (timestamp&timestampMask)<<timestampShift | shard<<shardShift | seq
}
