package dao

import (
	"context"
	"time"

	"github.com/ego-component/egorm"
)

type UserDAO interface {
	// FindByPhone 根据手机号查询用户，查不到返回gorm.ErrRecordNotFound
	FindByPhone(ctx context.Context, phone string) (User, error)
	// Create 新建用户
	Create(ctx context.Context, user User) (User, error)
}

// User 用户表
type User struct {
	ID       int64  `gorm:"primaryKey;comment:'雪花算法ID'"`
	Phone    string `gorm:"type:VARCHAR(16);NOT NULL;uniqueIndex:idx_phone;comment:'手机号'"`
	NickName string `gorm:"type:VARCHAR(32);comment:'昵称'"`
	Icon     string `gorm:"type:VARCHAR(255);comment:'头像'"`
	Ctime    int64
	Utime    int64
}

func (User) TableName() string {
	return "tb_user"
}

type userDAO struct {
	db *egorm.Component
}

func NewUserDAO(db *egorm.Component) UserDAO {
	return &userDAO{db: db}
}

func (d *userDAO) FindByPhone(ctx context.Context, phone string) (User, error) {
	var user User
	err := d.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error
	return user, err
}

func (d *userDAO) Create(ctx context.Context, user User) (User, error) {
	now := time.Now().UnixMilli()
	user.Ctime, user.Utime = now, now
	err := d.db.WithContext(ctx).Create(&user).Error
	return user, err
}
