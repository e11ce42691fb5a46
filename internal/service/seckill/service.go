package seckill

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/EERN0/dianping/internal/domain"
	"github.com/EERN0/dianping/internal/errs"
	"github.com/EERN0/dianping/internal/pkg/idgen"
	"github.com/EERN0/dianping/internal/repository"
	"github.com/redis/go-redis/v9"
)

//go:embed lua/seckill.lua
var seckillScript string

const (
	// seckill.lua 的三种返回值
	resultEligible  = 0
	resultNoStock   = 1
	resultDuplicate = 2

	orderIDNamespace = "order"
)

// Service 秒杀下单服务
type Service interface {
	// Seckill 对 userID 发起一次 voucherID 的秒杀。
	// 成功返回预生成的订单id，此时订单尚未落库，由后台消费者异步写入。
	Seckill(ctx context.Context, voucherID, userID int64) (int64, error)
	// AddVoucher 新增秒杀券，同时把库存预热进Redis
	AddVoucher(ctx context.Context, voucher domain.SeckillVoucher) error
	// GetVoucher 查询秒杀券
	GetVoucher(ctx context.Context, voucherID int64) (domain.SeckillVoucher, error)
}

type service struct {
	client   redis.Cmdable
	idGen    *idgen.Generator
	vouchers repository.SeckillVoucherRepository
}

func NewService(client redis.Cmdable, idGen *idgen.Generator, vouchers repository.SeckillVoucherRepository) Service {
	return &service{
		client:   client,
		idGen:    idGen,
		vouchers: vouchers,
	}
}

func (s *service) Seckill(ctx context.Context, voucherID, userID int64) (int64, error) {
	voucher, err := s.vouchers.GetByVoucherID(ctx, voucherID)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	if now.Before(voucher.BeginTime) {
		return 0, fmt.Errorf("%w: 秒杀尚未开始", errs.ErrInvalidParameter)
	}
	if now.After(voucher.EndTime) {
		return 0, fmt.Errorf("%w: 秒杀已经结束", errs.ErrInvalidParameter)
	}

	// 订单id先于资格校验生成：脚本通过后消息直接带着订单id进队列
	orderID, err := s.idGen.NextID(ctx, orderIDNamespace)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errs.ErrOrderIDGenerateFailed, err)
	}

	res, err := s.client.Eval(ctx, seckillScript, []string{}, voucherID, userID, orderID).Int64()
	if err != nil {
		return 0, fmt.Errorf("执行秒杀脚本失败: %w", err)
	}
	switch res {
	case resultEligible:
		return orderID, nil
	case resultNoStock:
		return 0, errs.ErrStockNotEnough
	case resultDuplicate:
		return 0, errs.ErrOrderDuplicate
	default:
		return 0, fmt.Errorf("秒杀脚本返回了未知结果: %d", res)
	}
}

func (s *service) AddVoucher(ctx context.Context, voucher domain.SeckillVoucher) error {
	if err := voucher.Validate(); err != nil {
		return err
	}
	return s.vouchers.Create(ctx, voucher)
}

func (s *service) GetVoucher(ctx context.Context, voucherID int64) (domain.SeckillVoucher, error) {
	return s.vouchers.GetByVoucherID(ctx, voucherID)
}
