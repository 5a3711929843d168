package notify

import (
	"context"
	"fmt"
)

// Publisher публикует сообщение в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SMSChannel публикует пакет в RabbitMQ, откуда его забирает SMS-шлюз.
type SMSChannel struct {
	publisher  Publisher
	routingKey string
}

// NewSMSChannel создаёт SMS-канал.
func NewSMSChannel(publisher Publisher, routingKey string) *SMSChannel {
	return &SMSChannel{publisher: publisher, routingKey: routingKey}
}

// Name возвращает имя канала.
func (c *SMSChannel) Name() string {
	return "sms"
}

// Send публикует пакет одним сообщением.
func (c *SMSChannel) Send(ctx context.Context, batch Batch) error {
	const op = "notify.SMSChannel.Send"
	if err := c.publisher.Publish(ctx, c.routingKey, batch); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
