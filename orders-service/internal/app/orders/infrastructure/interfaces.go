package infrastructure

import "context"

// MessagePublisher публикует события заказов (Kafka topic order_events)
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}
