package ioc

import (
	"time"

	"github.com/EERN0/dianping/internal/pkg/cache"
	"github.com/EERN0/dianping/internal/pkg/idgen"
	"github.com/EERN0/dianping/internal/pkg/ratelimit"
	"github.com/EERN0/dianping/internal/repository"
	"github.com/EERN0/dianping/internal/repository/dao"
	blogsvc "github.com/EERN0/dianping/internal/service/blog"
	seckillsvc "github.com/EERN0/dianping/internal/service/seckill"
	shopsvc "github.com/EERN0/dianping/internal/service/shop"
	usersvc "github.com/EERN0/dianping/internal/service/user"
	"github.com/EERN0/dianping/internal/web"
	"github.com/gotomicro/ego/server/egin"
)

// App 应用的全部顶层组件
type App struct {
	WebServer *egin.Component
	// OrderConsumer 秒杀订单的后台消费者，和web服务同生命周期
	OrderConsumer *seckillsvc.OrderConsumer
}

func InitApp() *App {
	rdb := InitRedisClient()
	db := InitDB()
	cacheClient := cache.NewClient(rdb)

	shopRepo := repository.NewShopRepository(dao.NewShopDAO(db), cacheClient)
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	blogRepo := repository.NewBlogRepository(dao.NewBlogDAO(db), rdb)
	voucherRepo := repository.NewSeckillVoucherRepository(dao.NewSeckillVoucherDAO(db), rdb)
	orderRepo := repository.NewVoucherOrderRepository(dao.NewVoucherOrderDAO(db))

	users := usersvc.NewService(rdb, userRepo)
	shops := shopsvc.NewService(shopRepo)
	blogs := blogsvc.NewService(blogRepo)
	seckills := seckillsvc.NewService(rdb, idgen.NewGenerator(rdb), voucherRepo)

	// 验证码接口按IP限流，一分钟最多5次
	codeLimiter := ratelimit.NewRedisSlidingWindowLimiter(rdb, time.Minute, 5)
	server := InitWebServer(
		users,
		web.NewShopHandler(shops),
		web.NewUserHandler(users, web.RateLimit(codeLimiter, "code")),
		web.NewBlogHandler(blogs),
		web.NewVoucherHandler(seckills),
	)
	return &App{
		WebServer:     server,
		OrderConsumer: seckillsvc.NewOrderConsumer(rdb, orderRepo),
	}
}
