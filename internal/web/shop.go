package web

import (
	"strconv"
	"time"

	"github.com/EERN0/dianping/internal/domain"
	"github.com/EERN0/dianping/internal/errs"
	shopsvc "github.com/EERN0/dianping/internal/service/shop"
	"github.com/gin-gonic/gin"
)

// ShopHandler 店铺相关接口
type ShopHandler struct {
	svc shopsvc.Service
}

func NewShopHandler(svc shopsvc.Service) *ShopHandler {
	return &ShopHandler{svc: svc}
}

// PublicRoutes 无需登录的路由
func (h *ShopHandler) PublicRoutes(engine gin.IRoutes) {
	// 热点接口挂在:id下一级，gin的路由树里同段的通配符和字面量不能共存
	engine.GET("/shop/:id", h.GetByID)
	engine.GET("/shop/:id/hot", h.GetHotByID)
}

// PrivateRoutes 需要登录的路由
func (h *ShopHandler) PrivateRoutes(engine gin.IRoutes) {
	engine.PUT("/shop", h.Update)
	engine.POST("/shop/:id/warmup", h.Warmup)
}

type ShopResp struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	TypeID   int64  `json:"typeId"`
	Address  string `json:"address"`
	Area     string `json:"area"`
	AvgPrice int64  `json:"avgPrice"`
	Sold     int    `json:"sold"`
	Comments int    `json:"comments"`
	Score    int    `json:"score"`
}

func (h *ShopHandler) GetByID(ctx *gin.Context) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	shop, err := h.svc.GetByID(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeOK(ctx, toShopResp(shop))
}

func (h *ShopHandler) GetHotByID(ctx *gin.Context) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	shop, err := h.svc.GetHotByID(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeOK(ctx, toShopResp(shop))
}

type UpdateShopReq struct {
	ID       int64  `json:"id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	TypeID   int64  `json:"typeId"`
	Address  string `json:"address"`
	Area     string `json:"area"`
	AvgPrice int64  `json:"avgPrice"`
	Sold     int    `json:"sold"`
	Comments int    `json:"comments"`
	Score    int    `json:"score"`
}

func (h *ShopHandler) Update(ctx *gin.Context) {
	var req UpdateShopReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeError(ctx, errs.ErrInvalidParameter)
		return
	}
	err := h.svc.Update(ctx.Request.Context(), domain.Shop{
		ID:       req.ID,
		Name:     req.Name,
		TypeID:   req.TypeID,
		Address:  req.Address,
		Area:     req.Area,
		AvgPrice: req.AvgPrice,
		Sold:     req.Sold,
		Comments: req.Comments,
		Score:    req.Score,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeOK(ctx, nil)
}

type WarmupShopReq struct {
	// TTLSeconds 逻辑过期时长，缺省10分钟
	TTLSeconds int64 `json:"ttlSeconds"`
}

func (h *ShopHandler) Warmup(ctx *gin.Context) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req WarmupShopReq
	if err := ctx.ShouldBindJSON(&req); err != nil && ctx.Request.ContentLength > 0 {
		writeError(ctx, errs.ErrInvalidParameter)
		return
	}
	ttl := 10 * time.Minute
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}
	if err := h.svc.Warmup(ctx.Request.Context(), id, ttl); err != nil {
		writeError(ctx, err)
		return
	}
	writeOK(ctx, nil)
}

func toShopResp(s domain.Shop) ShopResp {
	return ShopResp{
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

// pathID 解析路径参数里的:id
func pathID(ctx *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.ErrInvalidParameter
	}
	return id, nil
}
