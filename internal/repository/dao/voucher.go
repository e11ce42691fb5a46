package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EERN0/dianping/internal/errs"
	"github.com/ego-component/egorm"
	"gorm.io/gorm"
)

type SeckillVoucherDAO interface {
	// Create 新建秒杀券
	Create(ctx context.Context, voucher SeckillVoucher) error
	// GetByVoucherID 根据优惠券ID查询秒杀信息
	GetByVoucherID(ctx context.Context, voucherID int64) (SeckillVoucher, error)
}

// SeckillVoucher 秒杀券表，库存和时间窗独立于普通券
type SeckillVoucher struct {
	VoucherID int64  `gorm:"primaryKey;comment:'关联的优惠券ID'"`
	ShopID    int64  `gorm:"type:BIGINT;NOT NULL;index:idx_seckill_shop_id;comment:'发券店铺'"`
	Title     string `gorm:"type:VARCHAR(255);NOT NULL;comment:'券标题'"`
	PayValue  int64  `gorm:"comment:'支付金额，单位分'"`
	Stock     int    `gorm:"NOT NULL;comment:'剩余库存'"`
	BeginTime int64  `gorm:"comment:'秒杀开始时间，毫秒'"`
	EndTime   int64  `gorm:"comment:'秒杀结束时间，毫秒'"`
	Ctime     int64
	Utime     int64
}

func (SeckillVoucher) TableName() string {
	return "tb_seckill_voucher"
}

type seckillVoucherDAO struct {
	db *egorm.Component
}

func NewSeckillVoucherDAO(db *egorm.Component) SeckillVoucherDAO {
	return &seckillVoucherDAO{db: db}
}

func (d *seckillVoucherDAO) Create(ctx context.Context, voucher SeckillVoucher) error {
	now := time.Now().UnixMilli()
	voucher.Ctime, voucher.Utime = now, now
	return d.db.WithContext(ctx).Create(&voucher).Error
}

func (d *seckillVoucherDAO) GetByVoucherID(ctx context.Context, voucherID int64) (SeckillVoucher, error) {
	var voucher SeckillVoucher
	err := d.db.WithContext(ctx).Where("voucher_id = ?", voucherID).First(&voucher).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return SeckillVoucher{}, fmt.Errorf("%w: voucherID = %d", errs.ErrVoucherNotFound, voucherID)
	}
	return voucher, err
}
