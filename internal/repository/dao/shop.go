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

type ShopDAO interface {
	// GetByID 根据ID查询店铺，查不到返回errs.ErrShopNotFound
	GetByID(ctx context.Context, id int64) (Shop, error)
	// Update 更新店铺信息
	Update(ctx context.Context, shop Shop) error
}

// Shop 店铺表
type Shop struct {
	ID       int64  `gorm:"primaryKey;autoIncrement;comment:'主键'"`
	Name     string `gorm:"type:VARCHAR(128);NOT NULL;comment:'店铺名称'"`
	TypeID   int64  `gorm:"type:BIGINT;NOT NULL;index:idx_type_id;comment:'店铺类型'"`
	Address  string `gorm:"type:VARCHAR(255);comment:'地址'"`
	Area     string `gorm:"type:VARCHAR(64);comment:'商圈'"`
	AvgPrice int64  `gorm:"comment:'人均价格'"`
	Sold     int    `gorm:"comment:'销量'"`
	Comments int    `gorm:"comment:'评论数量'"`
	Score    int    `gorm:"comment:'评分，1~50'"`
	Ctime    int64
	Utime    int64
}

func (Shop) TableName() string {
	return "tb_shop"
}

type shopDAO struct {
	db *egorm.Component
}

func NewShopDAO(db *egorm.Component) ShopDAO {
	return &shopDAO{db: db}
}

func (d *shopDAO) GetByID(ctx context.Context, id int64) (Shop, error) {
	var shop Shop
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Shop{}, fmt.Errorf("%w: id = %d", errs.ErrShopNotFound, id)
	}
	return shop, err
}

func (d *shopDAO) Update(ctx context.Context, shop Shop) error {
	shop.Utime = time.Now().UnixMilli()
	return d.db.WithContext(ctx).Model(&Shop{}).
		Where("id = ?", shop.ID).
		Updates(&shop).Error
}
