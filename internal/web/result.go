package web

import (
	"errors"
	"net/http"

	"github.com/EERN0/dianping/internal/errs"
	"github.com/gin-gonic/gin"
)

// Result 统一响应包体
type Result struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func writeOK(ctx *gin.Context, data any) {
	ctx.JSON(http.StatusOK, Result{Msg: "OK", Data: data})
}

// writeError 把领域错误翻译成HTTP状态码和业务码，
// 不认识的错误一律500，不把内部细节漏给调用方
func writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidParameter):
		ctx.JSON(http.StatusBadRequest, Result{Code: 400001, Msg: err.Error()})
	case errors.Is(err, errs.ErrShopNotFound),
		errors.Is(err, errs.ErrVoucherNotFound),
		errors.Is(err, errs.ErrBlogNotFound):
		ctx.JSON(http.StatusNotFound, Result{Code: 404001, Msg: err.Error()})
	case errors.Is(err, errs.ErrStockNotEnough):
		ctx.JSON(http.StatusConflict, Result{Code: 409001, Msg: errs.ErrStockNotEnough.Error()})
	case errors.Is(err, errs.ErrOrderDuplicate):
		ctx.JSON(http.StatusConflict, Result{Code: 409002, Msg: errs.ErrOrderDuplicate.Error()})
	case errors.Is(err, errs.ErrVerifyCodeMismatch):
		ctx.JSON(http.StatusBadRequest, Result{Code: 400002, Msg: errs.ErrVerifyCodeMismatch.Error()})
	case errors.Is(err, errs.ErrLoginSessionExpired):
		ctx.JSON(http.StatusUnauthorized, Result{Code: 401001, Msg: errs.ErrLoginSessionExpired.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, Result{Code: 500001, Msg: "系统错误"})
	}
}
