package blog

import (
	"context"

	"github.com/EERN0/dianping/internal/domain"
	"github.com/EERN0/dianping/internal/repository"
)

const topLikersLimit = 5

// Service 探店笔记的点赞互动
type Service interface {
	// GetByID 查询笔记，顺带填充callerUserID是否点赞过
	GetByID(ctx context.Context, id, callerUserID int64) (domain.Blog, error)
	// Like 点赞，重复点赞转为取消点赞
	Like(ctx context.Context, blogID, callerUserID int64) error
	// TopLikers 最早点赞的前5个用户id，用于"谁赞过"头像栏
	TopLikers(ctx context.Context, blogID int64) ([]int64, error)
}

type service struct {
	repo repository.BlogRepository
}

func NewService(repo repository.BlogRepository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id, callerUserID int64) (domain.Blog, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Blog{}, err
	}
	liked, err := s.repo.IsLiked(ctx, id, callerUserID)
	if err != nil {
		return domain.Blog{}, err
	}
	b.IsLike = liked
	return b, nil
}

func (s *service) Like(ctx context.Context, blogID, callerUserID int64) error {
	liked, err := s.repo.IsLiked(ctx, blogID, callerUserID)
	if err != nil {
		return err
	}
	if liked {
		return s.repo.Unlike(ctx, blogID, callerUserID)
	}
	return s.repo.Like(ctx, blogID, callerUserID)
}

func (s *service) TopLikers(ctx context.Context, blogID int64) ([]int64, error) {
	return s.repo.TopLikerIDs(ctx, blogID, topLikersLimit)
}
