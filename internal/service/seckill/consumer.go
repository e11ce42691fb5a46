package seckill

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/EERN0/dianping/internal/domain"
	"github.com/EERN0/dianping/internal/errs"
	"github.com/EERN0/dianping/internal/pkg/lock"
	"github.com/EERN0/dianping/internal/repository"
	"github.com/gotomicro/ego/core/elog"
	"github.com/redis/go-redis/v9"
)

const (
	streamName   = "stream.orders"
	groupName    = "g1"
	consumerName = "c1"

	readBlock      = 2 * time.Second
	orderLockLease = 10 * time.Second
	// 消费出错后的退避间隔，避免空转打满CPU
	retryInterval = 100 * time.Millisecond
)

// OrderConsumer 从 stream.orders 里取出秒杀脚本投递的订单消息，异步落库。
// 消息只在订单成功写入（或确认是重复投递）之后才ACK，
// 中途崩溃的消息留在pending-list里，重启后先补偿再消费新消息。
type OrderConsumer struct {
	client redis.Cmdable
	orders repository.VoucherOrderRepository
	logger *elog.Component
}

func NewOrderConsumer(client redis.Cmdable, orders repository.VoucherOrderRepository) *OrderConsumer {
	return &OrderConsumer{
		client: client,
		orders: orders,
		logger: elog.DefaultLogger.With(elog.FieldComponent("seckill.OrderConsumer")),
	}
}

// Start 启动后台消费goroutine，ctx取消后退出
func (c *OrderConsumer) Start(ctx context.Context) {
	go c.Run(ctx)
}

// Run 同步消费循环，一般通过 Start 启动，测试里可以直接调用
func (c *OrderConsumer) Run(ctx context.Context) {
	// redis短暂不可用不能让消费者永久退场，建组失败就退避重试
	for {
		err := c.ensureGroup(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return
		}
		c.logger.Error("创建消费者组失败，稍后重试", elog.FieldErr(err))
		time.Sleep(retryInterval)
	}
	// 先处理上一次异常退出留下的pending-list
	c.drainPending(ctx)
	for {
		if ctx.Err() != nil {
			return
		}
		res, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    groupName,
			Consumer: consumerName,
			Streams:  []string{streamName, ">"},
			Count:    1,
			Block:    readBlock,
		}).Result()
		if errors.Is(err, redis.Nil) {
			// 阻塞超时，没有新消息
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("读取订单消息失败", elog.FieldErr(err))
			time.Sleep(retryInterval)
			continue
		}
		if len(res) == 0 || len(res[0].Messages) == 0 {
			continue
		}
		if err := c.consume(ctx, res[0].Messages[0]); err != nil {
			c.logger.Error("处理订单消息失败，转入pending-list补偿", elog.FieldErr(err))
			c.drainPending(ctx)
		}
	}
}

// drainPending 逐条补偿pending-list里已投递未ACK的消息，直到清空为止
func (c *OrderConsumer) drainPending(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		res, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    groupName,
			Consumer: consumerName,
			Streams:  []string{streamName, "0"},
			Count:    1,
		}).Result()
		if errors.Is(err, redis.Nil) {
			return
		}
		if err != nil {
			c.logger.Error("读取pending-list失败", elog.FieldErr(err))
			time.Sleep(retryInterval)
			continue
		}
		if len(res) == 0 || len(res[0].Messages) == 0 {
			// pending-list已清空
			return
		}
		if err := c.consume(ctx, res[0].Messages[0]); err != nil {
			c.logger.Error("处理pending-list消息失败", elog.FieldErr(err))
			time.Sleep(retryInterval)
		}
	}
}

// consume 处理单条消息，成功或确认无需处理时ACK
func (c *OrderConsumer) consume(ctx context.Context, msg redis.XMessage) error {
	order, err := parseOrder(msg)
	if err != nil {
		// 解析不了的消息重投多少次都没用，记日志后直接ACK丢弃
		c.logger.Error("订单消息格式非法，丢弃",
			elog.String("msgID", msg.ID),
			elog.Any("values", msg.Values),
			elog.FieldErr(err))
		return c.ack(ctx, msg.ID)
	}
	if err := c.createOrder(ctx, order); err != nil {
		return err
	}
	return c.ack(ctx, msg.ID)
}

func (c *OrderConsumer) createOrder(ctx context.Context, order domain.VoucherOrder) error {
	// Redis脚本已经保证了一人一单，这里的锁只兜底消息重复投递、
	// 多实例同时补偿pending-list之类的并发场景
	l := lock.NewLock(c.client, fmt.Sprintf("order:%d", order.UserID))
	ok, err := l.TryLock(ctx, orderLockLease)
	if err != nil {
		return fmt.Errorf("获取订单锁失败: %w", err)
	}
	if !ok {
		// 不ACK，等下一轮补偿重试
		return fmt.Errorf("用户 %d 的订单锁被其他消费者持有", order.UserID)
	}
	defer func() {
		if uerr := l.Unlock(ctx); uerr != nil {
			c.logger.Warn("释放订单锁失败", elog.Int64("userID", order.UserID), elog.FieldErr(uerr))
		}
	}()

	created, err := c.orders.CreateIfAbsent(ctx, order)
	if err != nil {
		if errors.Is(err, errs.ErrStockNotEnough) {
			// Redis预扣成功但数据库库存不足，说明两边已经不一致，
			// 重投也不会成功，记日志后按已处理ACK
			c.logger.Error("数据库库存不足，订单丢弃",
				elog.Int64("orderID", order.ID),
				elog.Int64("voucherID", order.VoucherID))
			return nil
		}
		return fmt.Errorf("订单落库失败: %w", err)
	}
	if !created {
		c.logger.Warn("订单已存在，跳过重复消息",
			elog.Int64("userID", order.UserID),
			elog.Int64("voucherID", order.VoucherID))
	}
	return nil
}

func (c *OrderConsumer) ack(ctx context.Context, msgID string) error {
	if err := c.client.XAck(ctx, streamName, groupName, msgID).Err(); err != nil {
		return fmt.Errorf("ACK消息 %s 失败: %w", msgID, err)
	}
	return nil
}

// ensureGroup 建出消费者组，组已存在时的BUSYGROUP不算错
func (c *OrderConsumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, streamName, groupName, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func parseOrder(msg redis.XMessage) (domain.VoucherOrder, error) {
	id, err := fieldInt64(msg, "id")
	if err != nil {
		return domain.VoucherOrder{}, err
	}
	userID, err := fieldInt64(msg, "userId")
	if err != nil {
		return domain.VoucherOrder{}, err
	}
	voucherID, err := fieldInt64(msg, "voucherId")
	if err != nil {
		return domain.VoucherOrder{}, err
	}
	return domain.VoucherOrder{
		ID:        id,
		UserID:    userID,
		VoucherID: voucherID,
	}, nil
}

func fieldInt64(msg redis.XMessage, field string) (int64, error) {
	raw, ok := msg.Values[field]
	if !ok {
		return 0, fmt.Errorf("消息缺少 %s 字段", field)
	}
	s, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("消息 %s 字段不是字符串: %T", field, raw)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("消息 %s 字段解析失败: %w", field, err)
	}
	return v, nil
}
