package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"fragrance-store/internal/config"
	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer публикует события магазина в Kafka
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer создает синхронный продюсер Kafka
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("Kafka producer created")

	return &Producer{
		producer: producer,
		log:      log,
		topics:   &cfg.Topics,
	}, nil
}

// Close закрывает продюсер
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// PublishProductCreated публикует событие создания товара
func (p *Producer) PublishProductCreated(product *models.Product) error {
	return p.publishEvent(p.topics.Catalog, newEvent(models.EventTypeProductCreated, product))
}

// PublishDiscountCreated публикует событие создания сезонной скидки
func (p *Producer) PublishDiscountCreated(discount *models.SeasonalDiscount) error {
	return p.publishEvent(p.topics.Catalog, newEvent(models.EventTypeDiscountCreated, discount))
}

// PublishOrderCreated публикует событие создания заказа
func (p *Producer) PublishOrderCreated(order *models.Order) error {
	return p.publishEvent(p.topics.Orders, newEvent(models.EventTypeOrderCreated, order))
}

// PublishOrderStatusChanged публикует событие смены статуса заказа
func (p *Producer) PublishOrderStatusChanged(orderID uuid.UUID, oldStatus, newStatus models.OrderStatus) error {
	payload := map[string]interface{}{
		"order_id":   orderID,
		"old_status": oldStatus,
		"new_status": newStatus,
	}
	return p.publishEvent(p.topics.Orders, newEvent(models.EventTypeOrderStatusChanged, payload))
}

// PublishChatMessageCreated публикует событие нового сообщения поддержки
func (p *Producer) PublishChatMessageCreated(message *models.ChatMessage) error {
	return p.publishEvent(p.topics.Chat, newEvent(models.EventTypeChatMessageCreated, message))
}

func newEvent(eventType models.EventType, payload interface{}) models.Event {
	data, err := json.Marshal(payload)
	if err != nil {
		data = nil
	}
	return models.Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now(),
		Data:       data,
	}
}

func (p *Producer) publishEvent(topic string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.ID.String()),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}

	p.log.WithFields(map[string]interface{}{
		"topic":     topic,
		"type":      event.Type,
		"partition": partition,
		"offset":    offset,
	}).Debug("Event published")

	return nil
}
