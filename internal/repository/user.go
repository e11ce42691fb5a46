package repository

import (
	"context"
	"errors"
	"time"

	"github.com/EERN0/dianping/internal/domain"
	"github.com/EERN0/dianping/internal/repository/dao"
	"gorm.io/gorm"
)

type UserRepository interface {
	// FindByPhone 根据手机号查询用户，不存在时返回(nil, nil)
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	// Create 新建用户，ID由调用方生成
	Create(ctx context.Context, user domain.User) (domain.User, error)
}

type userRepository struct {
	dao dao.UserDAO
}

func NewUserRepository(d dao.UserDAO) UserRepository {
	return &userRepository{dao: d}
}

func (repo *userRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	entity, err := repo.dao.FindByPhone(ctx, phone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user := repo.toDomain(entity)
	return &user, nil
}

func (repo *userRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	entity, err := repo.dao.Create(ctx, dao.User{
		ID:       user.ID,
		Phone:    user.Phone,
		NickName: user.NickName,
		Icon:     user.Icon,
	})
	if err != nil {
		return domain.User{}, err
	}
	return repo.toDomain(entity), nil
}

func (repo *userRepository) toDomain(e dao.User) domain.User {
	return domain.User{
		ID:       e.ID,
		Phone:    e.Phone,
		NickName: e.NickName,
		Icon:     e.Icon,
		Ctime:    time.UnixMilli(e.Ctime),
		Utime:    time.UnixMilli(e.Utime),
	}
}
