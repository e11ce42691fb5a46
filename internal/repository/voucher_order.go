package repository

import (
	"context"
	"errors"
	"time"

	"github.com/EERN0/dianping/internal/domain"
	"github.com/EERN0/dianping/internal/repository/dao"
	"gorm.io/gorm"
)

type VoucherOrderRepository interface {
	// CreateIfAbsent 幂等创建订单，返回本次是否真正落库
	CreateIfAbsent(ctx context.Context, order domain.VoucherOrder) (bool, error)
	// FindByUserAndVoucher 查询某用户对某券的订单，不存在时返回(nil, nil)
	FindByUserAndVoucher(ctx context.Context, userID, voucherID int64) (*domain.VoucherOrder, error)
	// CountByVoucher 某张券的订单总数
	CountByVoucher(ctx context.Context, voucherID int64) (int64, error)
}

type voucherOrderRepository struct {
	dao dao.VoucherOrderDAO
}

func NewVoucherOrderRepository(d dao.VoucherOrderDAO) VoucherOrderRepository {
	return &voucherOrderRepository{dao: d}
}

func (repo *voucherOrderRepository) CreateIfAbsent(ctx context.Context, order domain.VoucherOrder) (bool, error) {
	return repo.dao.CreateIfAbsent(ctx, dao.VoucherOrder{
		ID:        order.ID,
		UserID:    order.UserID,
		VoucherID: order.VoucherID,
	})
}

func (repo *voucherOrderRepository) FindByUserAndVoucher(ctx context.Context, userID, voucherID int64) (*domain.VoucherOrder, error) {
	entity, err := repo.dao.GetByUserAndVoucher(ctx, userID, voucherID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.VoucherOrder{
		ID:        entity.ID,
		UserID:    entity.UserID,
		VoucherID: entity.VoucherID,
		Ctime:     time.UnixMilli(entity.Ctime),
	}, nil
}

func (repo *voucherOrderRepository) CountByVoucher(ctx context.Context, voucherID int64) (int64, error) {
	return repo.dao.CountByVoucher(ctx, voucherID)
}
