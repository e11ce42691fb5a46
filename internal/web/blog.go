package web

import (
	"github.com/EERN0/dianping/internal/domain"
	blogsvc "github.com/EERN0/dianping/internal/service/blog"
	"github.com/gin-gonic/gin"
)

// BlogHandler 探店笔记接口
type BlogHandler struct {
	svc blogsvc.Service
}

func NewBlogHandler(svc blogsvc.Service) *BlogHandler {
	return &BlogHandler{svc: svc}
}

func (h *BlogHandler) PublicRoutes(engine gin.IRoutes) {
	engine.GET("/blog/:id/likes", h.TopLikers)
}

func (h *BlogHandler) PrivateRoutes(engine gin.IRoutes) {
	engine.GET("/blog/:id", h.GetByID)
	engine.PUT("/blog/:id/like", h.Like)
}

type BlogResp struct {
	ID      int64  `json:"id"`
	ShopID  int64  `json:"shopId"`
	UserID  int64  `json:"userId"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Liked   int    `json:"liked"`
	IsLike  bool   `json:"isLike"`
}

func (h *BlogHandler) GetByID(ctx *gin.Context) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	b, err := h.svc.GetByID(ctx.Request.Context(), id, callerUserID(ctx))
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeOK(ctx, toBlogResp(b))
}

func (h *BlogHandler) Like(ctx *gin.Context) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if err := h.svc.Like(ctx.Request.Context(), id, callerUserID(ctx)); err != nil {
		writeError(ctx, err)
		return
	}
	writeOK(ctx, nil)
}

type TopLikersResp struct {
	UserIDs []int64 `json:"userIds"`
}

func (h *BlogHandler) TopLikers(ctx *gin.Context) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ids, err := h.svc.TopLikers(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeOK(ctx, TopLikersResp{UserIDs: ids})
}

func toBlogResp(b domain.Blog) BlogResp {
	return BlogResp{
		ID:      b.ID,
		ShopID:  b.ShopID,
		UserID:  b.UserID,
		Title:   b.Title,
		Content: b.Content,
		Liked:   b.Liked,
		IsLike:  b.IsLike,
	}
}
