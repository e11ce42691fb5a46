package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EERN0/dianping/internal/errs"
	"github.com/ego-component/egorm"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type VoucherOrderDAO interface {
	// CreateIfAbsent 幂等创建订单：同一个(userID, voucherID)已有订单时不做任何写入，
	// 返回created=false。创建成功时同步扣减数据库库存，库存不足返回errs.ErrStockNotEnough
	CreateIfAbsent(ctx context.Context, order VoucherOrder) (created bool, err error)
	// GetByUserAndVoucher 查询某用户对某券的订单，查不到返回gorm.ErrRecordNotFound
	GetByUserAndVoucher(ctx context.Context, userID, voucherID int64) (VoucherOrder, error)
	// CountByVoucher 某张券的订单总数
	CountByVoucher(ctx context.Context, voucherID int64) (int64, error)
}

// VoucherOrder 秒杀券订单表
// (user_id, voucher_id)只建普通索引不建唯一索引，一人一单由消费端的
// 分布式锁+先查后插保证。所有写入方都必须经过同一把锁，这是部署约束
type VoucherOrder struct {
	ID        int64 `gorm:"primaryKey;comment:'订单ID，ID生成器生成'"`
	UserID    int64 `gorm:"type:BIGINT;NOT NULL;index:idx_user_voucher,priority:1;comment:'下单用户'"`
	VoucherID int64 `gorm:"type:BIGINT;NOT NULL;index:idx_user_voucher,priority:2;comment:'购买的优惠券'"`
	Ctime     int64
	Utime     int64
}

func (VoucherOrder) TableName() string {
	return "tb_voucher_order"
}

type voucherOrderDAO struct {
	db *egorm.Component
}

func NewVoucherOrderDAO(db *egorm.Component) VoucherOrderDAO {
	return &voucherOrderDAO{db: db}
}

func (d *voucherOrderDAO) CreateIfAbsent(ctx context.Context, order VoucherOrder) (bool, error) {
	now := time.Now().UnixMilli()
	order.Ctime, order.Utime = now, now

	created := false
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 一人一单re-check：lua脚本挡住了并发的新请求，
		// 但消息重投会让同一张ticket走到这里两次
		var count int64
		if err := tx.Model(&VoucherOrder{}).
			Where("user_id = ? AND voucher_id = ?", order.UserID, order.VoucherID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		// 扣减库存，stock > 0的条件保证不会扣成负数
		res := tx.Model(&SeckillVoucher{}).
			Where("voucher_id = ? AND stock > 0", order.VoucherID).
			Updates(map[string]any{
				"stock": gorm.Expr("`stock` - 1"),
				"utime": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: voucherID = %d", errs.ErrStockNotEnough, order.VoucherID)
		}

		if err := tx.Create(&order).Error; err != nil {
			if isUniqueConstraintError(err) {
				// 订单ID撞了主键，同一张ticket并发重投时可能出现
				// 返回错误让事务回滚，把刚才的库存扣减撤销掉
				return fmt.Errorf("%w: orderID = %d", errs.ErrOrderDuplicate, order.ID)
			}
			return fmt.Errorf("%w: %w", errs.ErrCreateOrderFailed, err)
		}
		created = true
		return nil
	})
	if errors.Is(err, errs.ErrOrderDuplicate) {
		return false, nil
	}
	return created, err
}

func (d *voucherOrderDAO) GetByUserAndVoucher(ctx context.Context, userID, voucherID int64) (VoucherOrder, error) {
	var order VoucherOrder
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND voucher_id = ?", userID, voucherID).
		First(&order).Error
	return order, err
}

func (d *voucherOrderDAO) CountByVoucher(ctx context.Context, voucherID int64) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&VoucherOrder{}).
		Where("voucher_id = ?", voucherID).
		Count(&count).Error
	return count, err
}

func isUniqueConstraintError(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		const uniqueIndexErrNo = 1062
		return me.Number == uniqueIndexErrNo
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
