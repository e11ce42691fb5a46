package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/EERN0/dianping/internal/domain"
	"github.com/EERN0/dianping/internal/repository/dao"
	"github.com/redis/go-redis/v9"
)

// SeckillStockKeyPrefix 秒杀库存在redis中的key前缀，资格校验lua脚本读同一组key
const SeckillStockKeyPrefix = "seckill:stock:"

type SeckillVoucherRepository interface {
	// Create 落库秒杀券，同时把库存预热进redis，秒杀的资格校验只看redis里的库存
	Create(ctx context.Context, voucher domain.SeckillVoucher) error
	// GetByVoucherID 查询秒杀券
	GetByVoucherID(ctx context.Context, voucherID int64) (domain.SeckillVoucher, error)
}

type seckillVoucherRepository struct {
	dao    dao.SeckillVoucherDAO
	client redis.Cmdable
}

func NewSeckillVoucherRepository(d dao.SeckillVoucherDAO, client redis.Cmdable) SeckillVoucherRepository {
	return &seckillVoucherRepository{dao: d, client: client}
}

func (repo *seckillVoucherRepository) Create(ctx context.Context, voucher domain.SeckillVoucher) error {
	err := repo.dao.Create(ctx, dao.SeckillVoucher{
		VoucherID: voucher.VoucherID,
		ShopID:    voucher.ShopID,
		Title:     voucher.Title,
		PayValue:  voucher.PayValue,
		Stock:     voucher.Stock,
		BeginTime: voucher.BeginTime.UnixMilli(),
		EndTime:   voucher.EndTime.UnixMilli(),
	})
	if err != nil {
		return err
	}
	// 库存写入redis，秒杀脚本在redis侧做原子扣减
	key := fmt.Sprintf("%s%d", SeckillStockKeyPrefix, voucher.VoucherID)
	return repo.client.Set(ctx, key, voucher.Stock, 0).Err()
}

func (repo *seckillVoucherRepository) GetByVoucherID(ctx context.Context, voucherID int64) (domain.SeckillVoucher, error) {
	entity, err := repo.dao.GetByVoucherID(ctx, voucherID)
	if err != nil {
		return domain.SeckillVoucher{}, err
	}
	return domain.SeckillVoucher{
		VoucherID: entity.VoucherID,
		ShopID:    entity.ShopID,
		Title:     entity.Title,
		PayValue:  entity.PayValue,
		Stock:     entity.Stock,
		BeginTime: time.UnixMilli(entity.BeginTime),
		EndTime:   time.UnixMilli(entity.EndTime),
	}, nil
}
