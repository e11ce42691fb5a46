package domain

import (
	"fmt"
	"time"

	"github.com/EERN0/dianping/internal/errs"
)

// SeckillVoucher 秒杀优惠券领域模型，库存和秒杀时间窗独立于普通券
type SeckillVoucher struct {
	VoucherID int64     // 关联的优惠券ID
	ShopID    int64     // 发券的店铺
	Title     string    // 券标题
	PayValue  int64     // 支付金额，单位是分
	Stock     int       // 剩余库存
	BeginTime time.Time // 秒杀开始时间
	EndTime   time.Time // 秒杀结束时间
}

func (v *SeckillVoucher) Validate() error {
	if v.VoucherID <= 0 {
		return fmt.Errorf("%w: VoucherID = %d", errs.ErrInvalidParameter, v.VoucherID)
	}
	if v.Stock < 0 {
		return fmt.Errorf("%w: Stock = %d", errs.ErrInvalidParameter, v.Stock)
	}
	if !v.EndTime.After(v.BeginTime) {
		return fmt.Errorf("%w: 秒杀结束时间早于开始时间", errs.ErrInvalidParameter)
	}
	return nil
}
