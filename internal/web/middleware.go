package web

import (
	"net/http"

	"github.com/EERN0/dianping/internal/pkg/ratelimit"
	usersvc "github.com/EERN0/dianping/internal/service/user"
	"github.com/gin-gonic/gin"
)

// ctxUserIDKey 登录中间件解析出的用户ID在gin上下文里的key。
// 处理器从这里取出用户ID后显式传给service，service层不感知gin
const ctxUserIDKey = "userID"

// Auth 登录校验中间件：authorization头里带会话token，
// 解析成功后把用户ID放进上下文并顺延会话TTL
func Auth(users usersvc.Service) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := ctx.GetHeader("authorization")
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, Result{Code: 401001, Msg: "未登录"})
			return
		}
		u, err := users.GetByToken(ctx.Request.Context(), token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, Result{Code: 401001, Msg: "登录已过期"})
			return
		}
		ctx.Set(ctxUserIDKey, u.ID)
		ctx.Next()
	}
}

// callerUserID 取出登录中间件写入的用户ID，只能在挂了Auth的路由里调用
func callerUserID(ctx *gin.Context) int64 {
	return ctx.MustGet(ctxUserIDKey).(int64)
}

// RateLimit 按客户端IP限流，主要挂在验证码接口上防刷
func RateLimit(limiter ratelimit.Limiter, biz string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		limited, err := limiter.Limit(ctx.Request.Context(), biz+":"+ctx.ClientIP())
		if err != nil {
			// redis异常时放行
			ctx.Next()
			return
		}
		if limited {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, Result{Code: 429001, Msg: "请求太频繁，稍后再试"})
			return
		}
		ctx.Next()
	}
}
