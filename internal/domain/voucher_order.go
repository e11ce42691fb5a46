package domain

import "time"

// VoucherOrder 秒杀券订单
// 不变量：同一个 (UserID, VoucherID) 至多存在一条订单
type VoucherOrder struct {
	ID        int64 // 订单ID，由ID生成器按规则生成，不是数据库自增
	UserID    int64 // 下单用户
	VoucherID int64 // 购买的优惠券
	Ctime     time.Time
}
