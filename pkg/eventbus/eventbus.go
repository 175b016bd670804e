package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"hr-dashboard/backend/config"
)

// 人才库事件路由键
const (
	TalentAdded   = "talent.added"
	TalentUpdated = "talent.updated"
	TalentDeleted = "talent.deleted"
	TalentSynced  = "talent.synced"
)

// Event 事件消息体
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
	Close() error
}

// ── AMQP 实现 ──

// AMQPPublisher 发布到 topic 类型交换机
type AMQPPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewAMQPPublisher 连接 RabbitMQ 并声明交换机
func NewAMQPPublisher(cfg *config.EventsConfig, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("连接 RabbitMQ 失败: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("创建 AMQP Channel 失败: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("声明交换机 %s 失败: %w", cfg.Exchange, err)
	}

	logger.Info("RabbitMQ 连接成功", zap.String("exchange", cfg.Exchange))
	return &AMQPPublisher{conn: conn, ch: ch, exchange: cfg.Exchange, logger: logger}, nil
}

// Publish 发布事件；Channel 非并发安全，发布过程串行化
func (p *AMQPPublisher) Publish(_ context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(Event{Type: routingKey, OccurredAt: time.Now(), Payload: payload})
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Publish(p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// Close 关闭 Channel 与连接
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.logger.Warn("关闭 AMQP Channel 失败", zap.Error(err))
	}
	return p.conn.Close()
}

// ── 空实现 ──

// NopPublisher 未配置消息队列时使用，仅记录调试日志
type NopPublisher struct {
	logger *zap.Logger
}

// NewNopPublisher 创建空发布器
func NewNopPublisher(logger *zap.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

// Publish 丢弃事件
func (p *NopPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	p.logger.Debug("事件未发布（未配置消息队列）", zap.String("routing_key", routingKey))
	return nil
}

// Close 无操作
func (p *NopPublisher) Close() error { return nil }

// New 按配置选择实现：未配置 AMQP 地址时返回 NopPublisher
func New(cfg *config.EventsConfig, logger *zap.Logger) (Publisher, error) {
	if cfg.AMQPURL == "" {
		return NewNopPublisher(logger), nil
	}
	return NewAMQPPublisher(cfg, logger)
}
