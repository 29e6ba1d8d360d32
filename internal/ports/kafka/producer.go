package kafka

import (
	"context"

	"github.com/admin/photo-apps/studio-api/internal/domain"
)

// IKafkaProducer интерфейс для отправки сообщений в Kafka
type IKafkaProducer interface {
	// SendChargeEvent отправляет billing-событие в топик аудита
	SendChargeEvent(ctx context.Context, event *domain.ChargeEvent) error
	// Send отправляет произвольное сообщение
	Send(ctx context.Context, key string, value []byte) error
	// Close закрывает producer
	Close() error
}
