package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EERN0/dianping/internal/domain"
	"github.com/EERN0/dianping/internal/errs"
	"github.com/EERN0/dianping/internal/pkg/cache"
	"github.com/EERN0/dianping/internal/repository/dao"
)

const (
	shopKeyPrefix = "cache:shop:"
	// shopHotKeyPrefix 逻辑过期预热数据单独占一个前缀。
	// 两种读策略的存储格式不兼容，混用同一个key会把过期envelope当成店铺数据解出来
	shopHotKeyPrefix = "cache:shop:hot:"
	shopTTL          = 30 * time.Minute
)

type ShopRepository interface {
	// GetByID 先查缓存后查库，缓存空值哨兵挡住缓存穿透
	GetByID(ctx context.Context, id int64) (domain.Shop, error)
	// GetHotByID 逻辑过期读，只适用于Warmup过的热点店铺，冷key返回ErrShopNotFound
	GetHotByID(ctx context.Context, id int64) (domain.Shop, error)
	// Warmup 把店铺按逻辑过期方式预热进缓存
	Warmup(ctx context.Context, id int64, ttl time.Duration) error
	// Update 先更新数据库再删缓存
	Update(ctx context.Context, shop domain.Shop) error
}

type shopRepository struct {
	dao   dao.ShopDAO
	cache *cache.Client
}

func NewShopRepository(d dao.ShopDAO, c *cache.Client) ShopRepository {
	return &shopRepository{dao: d, cache: c}
}

func (repo *shopRepository) GetByID(ctx context.Context, id int64) (domain.Shop, error) {
	shop, err := cache.Fetch(ctx, repo.cache, shopKeyPrefix, id, shopTTL, repo.load)
	if err != nil {
		return domain.Shop{}, err
	}
	if shop == nil {
		// 缓存哨兵和数据库双双确认不存在，对外统一为不存在
		return domain.Shop{}, errs.ErrShopNotFound
	}
	return *shop, nil
}

func (repo *shopRepository) GetHotByID(ctx context.Context, id int64) (domain.Shop, error) {
	shop, err := cache.FetchWithLogicalExpire(ctx, repo.cache, shopHotKeyPrefix, id, shopTTL, repo.load)
	if err != nil {
		return domain.Shop{}, err
	}
	if shop == nil {
		return domain.Shop{}, errs.ErrShopNotFound
	}
	return *shop, nil
}

func (repo *shopRepository) Warmup(ctx context.Context, id int64, ttl time.Duration) error {
	shop, err := repo.load(ctx, id)
	if err != nil {
		return err
	}
	if shop == nil {
		return errs.ErrShopNotFound
	}
	return repo.cache.SetWithLogicalExpire(ctx, fmt.Sprintf("%s%d", shopHotKeyPrefix, id), shop, ttl)
}

func (repo *shopRepository) Update(ctx context.Context, shop domain.Shop) error {
	if err := repo.dao.Update(ctx, repo.toEntity(shop)); err != nil {
		return err
	}
	// 先写库后删缓存，下一次读取回源拿新数据
	return repo.cache.Delete(ctx, fmt.Sprintf("%s%d", shopKeyPrefix, shop.ID))
}

// load 缓存未命中时的回源函数。数据库确认不存在时返回(nil, nil)，
// 让缓存层写入空值哨兵
func (repo *shopRepository) load(ctx context.Context, id int64) (*domain.Shop, error) {
	entity, err := repo.dao.GetByID(ctx, id)
	if errors.Is(err, errs.ErrShopNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	shop := repo.toDomain(entity)
	return &shop, nil
}

func (repo *shopRepository) toDomain(e dao.Shop) domain.Shop {
	return domain.Shop{
		ID:       e.ID,
		Name:     e.Name,
		TypeID:   e.TypeID,
		Address:  e.Address,
		Area:     e.Area,
		AvgPrice: e.AvgPrice,
		Sold:     e.Sold,
		Comments: e.Comments,
		Score:    e.Score,
		Ctime:    time.UnixMilli(e.Ctime),
		Utime:    time.UnixMilli(e.Utime),
	}
}

func (repo *shopRepository) toEntity(s domain.Shop) dao.Shop {
	return dao.Shop{
		ID:       s.ID,
		Name:     s.Name,
		TypeID:   s.TypeID,
		Address:  s.Address,
		Area:     s.Area,
		AvgPrice: s.AvgPrice,
		Sold:     s.Sold,
		Comments: s.Comments,
		Score:    s.Score,
	}
}
