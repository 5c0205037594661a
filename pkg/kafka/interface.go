// pkg/kafka/interface.go
//
// Пакет kafka задаёт минимальный контракт публикации, не тянет за собой
// Sarama и не зависит от конкретной реализации.
package kafka

import (
	"context"
	"errors"
)

// ErrProducerClosed возвращается из Publish после Close.
var ErrProducerClosed = errors.New("kafka: producer closed")

// Producer публикует сообщения в Kafka.
type Producer interface {
	// Publish ставит сообщение в очередь отправки и не ждёт подтверждения
	// брокера. Ошибка означает, что сообщение не было принято в очередь.
	// Пустой key → сообщение без ключа (партиция по умолчанию).
	Publish(ctx context.Context, topic string, key, value []byte) error
	// Ping проверяет достижимость кластера (обновление метаданных).
	Ping(ctx context.Context) error
	Close() error
}
