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

type BlogDAO interface {
	// GetByID 根据ID查询笔记，查不到返回errs.ErrBlogNotFound
	GetByID(ctx context.Context, id int64) (Blog, error)
	// IncrLiked 点赞数增减，delta为±1。减到0以下的更新不会生效
	IncrLiked(ctx context.Context, id int64, delta int) error
}

// Blog 探店笔记表
type Blog struct {
	ID      int64  `gorm:"primaryKey;autoIncrement;comment:'主键'"`
	ShopID  int64  `gorm:"type:BIGINT;index:idx_blog_shop_id;comment:'关联店铺'"`
	UserID  int64  `gorm:"type:BIGINT;NOT NULL;index:idx_user_id;comment:'作者'"`
	Title   string `gorm:"type:VARCHAR(255);NOT NULL;comment:'标题'"`
	Content string `gorm:"type:TEXT;comment:'正文'"`
	Liked   int    `gorm:"DEFAULT:0;comment:'点赞数量'"`
	Ctime   int64
	Utime   int64
}

func (Blog) TableName() string {
	return "tb_blog"
}

type blogDAO struct {
	db *egorm.Component
}

func NewBlogDAO(db *egorm.Component) BlogDAO {
	return &blogDAO{db: db}
}

func (d *blogDAO) GetByID(ctx context.Context, id int64) (Blog, error) {
	var blog Blog
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&blog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Blog{}, fmt.Errorf("%w: id = %d", errs.ErrBlogNotFound, id)
	}
	return blog, err
}

func (d *blogDAO) IncrLiked(ctx context.Context, id int64, delta int) error {
	now := time.Now().UnixMilli()
	query := d.db.WithContext(ctx).Model(&Blog{}).Where("id = ?", id)
	if delta < 0 {
		// 防止点赞数被减成负数
		query = query.Where("liked >= ?", -delta)
	}
	return query.Updates(map[string]any{
		"liked": gorm.Expr("`liked` + ?", delta),
		"utime": now,
	}).Error
}
