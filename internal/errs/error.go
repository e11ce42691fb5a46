package errs

import (
	"errors"
)

// 定义统一的错误类型
var (
	ErrInvalidParameter = errors.New("参数错误")

	ErrShopNotFound    = errors.New("店铺不存在")
	ErrVoucherNotFound = errors.New("优惠券不存在")
	ErrBlogNotFound    = errors.New("笔记不存在")

	ErrStockNotEnough        = errors.New("库存不足")
	ErrOrderDuplicate        = errors.New("不能重复下单")
	ErrOrderIDGenerateFailed = errors.New("订单ID生成失败")
	ErrCreateOrderFailed     = errors.New("创建订单失败")

	ErrVerifyCodeMismatch  = errors.New("验证码错误")
	ErrLoginSessionExpired = errors.New("登录已过期")
)
