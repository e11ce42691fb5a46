package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/EERN0/dianping/internal/domain"
	"github.com/EERN0/dianping/internal/repository/dao"
	"github.com/ecodeclub/ekit/slice"
	"github.com/redis/go-redis/v9"
)

const blogLikedKeyPrefix = "blog:liked:"

type BlogRepository interface {
	// GetByID 查询笔记
	GetByID(ctx context.Context, id int64) (domain.Blog, error)
	// IsLiked 某用户是否点赞过某笔记
	IsLiked(ctx context.Context, blogID, userID int64) (bool, error)
	// Like 点赞：数据库计数+1，点赞用户进zset，score是点赞时间
	Like(ctx context.Context, blogID, userID int64) error
	// Unlike 取消点赞
	Unlike(ctx context.Context, blogID, userID int64) error
	// TopLikerIDs 最早点赞的前limit个用户
	TopLikerIDs(ctx context.Context, blogID int64, limit int64) ([]int64, error)
}

type blogRepository struct {
	dao    dao.BlogDAO
	client redis.Cmdable
}

func NewBlogRepository(d dao.BlogDAO, client redis.Cmdable) BlogRepository {
	return &blogRepository{dao: d, client: client}
}

func (repo *blogRepository) GetByID(ctx context.Context, id int64) (domain.Blog, error) {
	entity, err := repo.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Blog{}, err
	}
	return domain.Blog{
		ID:      entity.ID,
		ShopID:  entity.ShopID,
		UserID:  entity.UserID,
		Title:   entity.Title,
		Content: entity.Content,
		Liked:   entity.Liked,
		Ctime:   time.UnixMilli(entity.Ctime),
		Utime:   time.UnixMilli(entity.Utime),
	}, nil
}

func (repo *blogRepository) IsLiked(ctx context.Context, blogID, userID int64) (bool, error) {
	// zset里有score就是点过赞
	err := repo.client.ZScore(ctx, repo.likedKey(blogID), strconv.FormatInt(userID, 10)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (repo *blogRepository) Like(ctx context.Context, blogID, userID int64) error {
	if err := repo.dao.IncrLiked(ctx, blogID, 1); err != nil {
		return err
	}
	return repo.client.ZAdd(ctx, repo.likedKey(blogID), redis.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: strconv.FormatInt(userID, 10),
	}).Err()
}

func (repo *blogRepository) Unlike(ctx context.Context, blogID, userID int64) error {
	if err := repo.dao.IncrLiked(ctx, blogID, -1); err != nil {
		return err
	}
	return repo.client.ZRem(ctx, repo.likedKey(blogID), strconv.FormatInt(userID, 10)).Err()
}

func (repo *blogRepository) TopLikerIDs(ctx context.Context, blogID int64, limit int64) ([]int64, error) {
	members, err := repo.client.ZRange(ctx, repo.likedKey(blogID), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	return slice.Map(members, func(_ int, src string) int64 {
		id, _ := strconv.ParseInt(src, 10, 64)
		return id
	}), nil
}

func (repo *blogRepository) likedKey(blogID int64) string {
	return fmt.Sprintf("%s%d", blogLikedKeyPrefix, blogID)
}
