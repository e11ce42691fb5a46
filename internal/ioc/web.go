package ioc

import (
	usersvc "github.com/EERN0/dianping/internal/service/user"
	"github.com/EERN0/dianping/internal/web"
	"github.com/gin-gonic/gin"
	"github.com/gotomicro/ego/server/egin"
)

// handler 每个业务handler都分公开路由和登录态路由两组
type handler interface {
	PublicRoutes(engine gin.IRoutes)
	PrivateRoutes(engine gin.IRoutes)
}

func InitWebServer(
	users usersvc.Service,
	shopHandler *web.ShopHandler,
	userHandler *web.UserHandler,
	blogHandler *web.BlogHandler,
	voucherHandler *web.VoucherHandler,
) *egin.Component {
	server := egin.Load("server.http").Build()
	authed := server.Engine.Group("", web.Auth(users))
	for _, h := range []handler{shopHandler, userHandler, blogHandler, voucherHandler} {
		h.PublicRoutes(server.Engine)
		h.PrivateRoutes(authed)
	}
	return server
}
