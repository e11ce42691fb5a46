package web

import (
	"github.com/EERN0/dianping/internal/errs"
	usersvc "github.com/EERN0/dianping/internal/service/user"
	"github.com/gin-gonic/gin"
)

// UserHandler 验证码登录相关接口
type UserHandler struct {
	svc usersvc.Service
	// codeLimit 验证码接口的防刷限流
	codeLimit gin.HandlerFunc
}

func NewUserHandler(svc usersvc.Service, codeLimit gin.HandlerFunc) *UserHandler {
	return &UserHandler{svc: svc, codeLimit: codeLimit}
}

func (h *UserHandler) PublicRoutes(engine gin.IRoutes) {
	engine.POST("/user/code", h.codeLimit, h.SendCode)
	engine.POST("/user/login", h.Login)
}

func (h *UserHandler) PrivateRoutes(engine gin.IRoutes) {
	engine.GET("/user/me", h.Me)
	engine.POST("/user/logout", h.Logout)
}

type SendCodeReq struct {
	Phone string `json:"phone" binding:"required"`
}

func (h *UserHandler) SendCode(ctx *gin.Context) {
	var req SendCodeReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeError(ctx, errs.ErrInvalidParameter)
		return
	}
	if err := h.svc.SendCode(ctx.Request.Context(), req.Phone); err != nil {
		writeError(ctx, err)
		return
	}
	writeOK(ctx, nil)
}

type LoginReq struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type LoginResp struct {
	Token string `json:"token"`
}

func (h *UserHandler) Login(ctx *gin.Context) {
	var req LoginReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeError(ctx, errs.ErrInvalidParameter)
		return
	}
	token, err := h.svc.Login(ctx.Request.Context(), req.Phone, req.Code)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeOK(ctx, LoginResp{Token: token})
}

type UserResp struct {
	ID       int64  `json:"id"`
	NickName string `json:"nickName"`
	Icon     string `json:"icon"`
}

func (h *UserHandler) Me(ctx *gin.Context) {
	token := ctx.GetHeader("authorization")
	u, err := h.svc.GetByToken(ctx.Request.Context(), token)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeOK(ctx, UserResp{ID: u.ID, NickName: u.NickName, Icon: u.Icon})
}

func (h *UserHandler) Logout(ctx *gin.Context) {
	if err := h.svc.Logout(ctx.Request.Context(), ctx.GetHeader("authorization")); err != nil {
		writeError(ctx, err)
		return
	}
	writeOK(ctx, nil)
}
