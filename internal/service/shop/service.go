package shop

import (
	"context"
	"time"

	"github.com/EERN0/dianping/internal/domain"
	"github.com/EERN0/dianping/internal/repository"
)

// Service 店铺查询与维护
type Service interface {
	// GetByID 普通店铺查询，走缓存空值哨兵防穿透
	GetByID(ctx context.Context, id int64) (domain.Shop, error)
	// GetHotByID 热点店铺查询，逻辑过期+异步重建防击穿，
	// 只对Warmup过的店铺有效
	GetHotByID(ctx context.Context, id int64) (domain.Shop, error)
	// Warmup 活动开始前把热点店铺预热进缓存
	Warmup(ctx context.Context, id int64, ttl time.Duration) error
	// Update 更新店铺信息并让缓存失效
	Update(ctx context.Context, shop domain.Shop) error
}

type service struct {
	repo repository.ShopRepository
}

func NewService(repo repository.ShopRepository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id int64) (domain.Shop, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetHotByID(ctx context.Context, id int64) (domain.Shop, error) {
	return s.repo.GetHotByID(ctx, id)
}

func (s *service) Warmup(ctx context.Context, id int64, ttl time.Duration) error {
	return s.repo.Warmup(ctx, id, ttl)
}

func (s *service) Update(ctx context.Context, shop domain.Shop) error {
	if err := shop.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, shop)
}
