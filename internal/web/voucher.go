package web

import (
	"strconv"
	"time"

	"github.com/EERN0/dianping/internal/domain"
	"github.com/EERN0/dianping/internal/errs"
	seckillsvc "github.com/EERN0/dianping/internal/service/seckill"
	"github.com/gin-gonic/gin"
)

// VoucherHandler 秒杀券的发布和下单接口
type VoucherHandler struct {
	svc seckillsvc.Service
}

func NewVoucherHandler(svc seckillsvc.Service) *VoucherHandler {
	return &VoucherHandler{svc: svc}
}

func (h *VoucherHandler) PublicRoutes(engine gin.IRoutes) {
	engine.GET("/voucher/seckill/:id", h.GetVoucher)
}

func (h *VoucherHandler) PrivateRoutes(engine gin.IRoutes) {
	engine.POST("/voucher/seckill", h.AddVoucher)
	engine.POST("/voucher-order/seckill/:id", h.Seckill)
}

type AddVoucherReq struct {
	VoucherID int64  `json:"voucherId" binding:"required"`
	ShopID    int64  `json:"shopId" binding:"required"`
	Title     string `json:"title" binding:"required"`
	PayValue  int64  `json:"payValue"`
	Stock     int    `json:"stock" binding:"required"`
	// 秒杀时间窗，毫秒时间戳
	BeginTime int64 `json:"beginTime" binding:"required"`
	EndTime   int64 `json:"endTime" binding:"required"`
}

func (h *VoucherHandler) AddVoucher(ctx *gin.Context) {
	var req AddVoucherReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeError(ctx, errs.ErrInvalidParameter)
		return
	}
	err := h.svc.AddVoucher(ctx.Request.Context(), domain.SeckillVoucher{
		VoucherID: req.VoucherID,
		ShopID:    req.ShopID,
		Title:     req.Title,
		PayValue:  req.PayValue,
		Stock:     req.Stock,
		BeginTime: time.UnixMilli(req.BeginTime),
		EndTime:   time.UnixMilli(req.EndTime),
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeOK(ctx, nil)
}

type VoucherResp struct {
	VoucherID int64  `json:"voucherId"`
	ShopID    int64  `json:"shopId"`
	Title     string `json:"title"`
	PayValue  int64  `json:"payValue"`
	Stock     int    `json:"stock"`
	BeginTime int64  `json:"beginTime"`
	EndTime   int64  `json:"endTime"`
}

func (h *VoucherHandler) GetVoucher(ctx *gin.Context) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	v, err := h.svc.GetVoucher(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeOK(ctx, VoucherResp{
		VoucherID: v.VoucherID,
		ShopID:    v.ShopID,
		Title:     v.Title,
		PayValue:  v.PayValue,
		Stock:     v.Stock,
		BeginTime: v.BeginTime.UnixMilli(),
		EndTime:   v.EndTime.UnixMilli(),
	})
}

type SeckillResp struct {
	// OrderID 预生成的订单号，订单异步落库，拿到订单号不代表已入库
	OrderID string `json:"orderId"`
}

func (h *VoucherHandler) Seckill(ctx *gin.Context) {
	voucherID, err := pathID(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	orderID, err := h.svc.Seckill(ctx.Request.Context(), voucherID, callerUserID(ctx))
	if err != nil {
		writeError(ctx, err)
		return
	}
	// 订单号是64位整数，JSON的number精度不够，转成字符串下发
	writeOK(ctx, SeckillResp{OrderID: strconv.FormatInt(orderID, 10)})
}
