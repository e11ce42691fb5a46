package main

import (
	"context"

	"github.com/EERN0/dianping/internal/ioc"
	"github.com/gotomicro/ego"
	"github.com/gotomicro/ego/core/elog"
)

func main() {
	egoApp := ego.New()

	// ego.New()之后配置才加载完成，组件初始化要放在后面
	app := ioc.InitApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app.OrderConsumer.Start(ctx)

	if err := egoApp.Serve(app.WebServer).Run(); err != nil {
		elog.Panic("startup", elog.Any("err", err))
	}
}
