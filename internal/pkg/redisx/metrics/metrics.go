package metrics

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

var (
	commandCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dianping_redis_commands_total",
			Help: "Total number of redis commands executed",
		},
		[]string{"command", "status"},
	)

	commandDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "dianping_redis_command_duration_seconds",
			Help:       "Redis command execution time in seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"command"},
	)

	dialCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dianping_redis_connections_total",
			Help: "Total number of redis connections created",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(commandCounter, commandDuration, dialCounter)
}

// Hook 实现 redis.Hook，给所有redis操作加上指标采集，按命令名区分
type Hook struct{}

func NewHook() *Hook {
	return &Hook{}
}

func (h *Hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		commandDuration.WithLabelValues(cmd.Name()).Observe(time.Since(start).Seconds())

		// redis.Nil是业务语义上的未命中，不算错误
		status := "success"
		if err != nil && !errors.Is(err, redis.Nil) {
			status = "error"
		}
		commandCounter.WithLabelValues(cmd.Name(), status).Inc()
		return err
	}
}

func (h *Hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		elapsed := time.Since(start).Seconds()
		for _, cmd := range cmds {
			commandDuration.WithLabelValues(cmd.Name()).Observe(elapsed / float64(len(cmds)))

			status := "success"
			if cmdErr := cmd.Err(); cmdErr != nil && !errors.Is(cmdErr, redis.Nil) {
				status = "error"
			}
			commandCounter.WithLabelValues(cmd.Name(), status).Inc()
		}
		return err
	}
}

func (h *Hook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		status := "success"
		if err != nil {
			status = "error"
		}
		dialCounter.WithLabelValues(status).Inc()
		return conn, err
	}
}

// WithMetrics 给redis客户端挂上指标采集hook
func WithMetrics(client *redis.Client) *redis.Client {
	client.AddHook(NewHook())
	return client
}
