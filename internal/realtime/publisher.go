package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/segmentio/kafka-go"

	"solana-pnl-tracker/internal/domain"
)

// Publisher forwards accepted trades to an external channel.
type Publisher interface {
	Publish(ctx context.Context, t *domain.TradeRecord) error
	Close() error
}

// KafkaPublisher writes trades to a Kafka topic as JSON, keyed by
// trader so one trader's activity stays ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a producer against the given brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher: brokers cannot be empty")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka publisher: topic cannot be empty")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 100 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, t *domain.TradeRecord) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trade %s: %w", t.TradeID, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(t.Trader),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// SNSNotifier publishes accepted trades to an SNS topic as JSON.
type SNSNotifier struct {
	api      snsiface.SNSAPI
	topicARN string
}

// NewSNSNotifier creates a notifier using a fresh AWS session.
func NewSNSNotifier(region, topicARN string) (*SNSNotifier, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return NewSNSNotifierWithAPI(sns.New(sess), topicARN)
}

// NewSNSNotifierWithAPI wires an existing SNS client, used by tests.
func NewSNSNotifierWithAPI(api snsiface.SNSAPI, topicARN string) (*SNSNotifier, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("sns notifier: topic ARN cannot be empty")
	}
	return &SNSNotifier{api: api, topicARN: topicARN}, nil
}

func (n *SNSNotifier) Publish(ctx context.Context, t *domain.TradeRecord) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trade %s: %w", t.TradeID, err)
	}
	_, err = n.api.PublishWithContext(ctx, &sns.PublishInput{
		Message:  aws.String(string(data)),
		TopicArn: aws.String(n.topicARN),
	})
	if err != nil {
		return fmt.Errorf("sns publish trade %s: %w", t.TradeID, err)
	}
	return nil
}

func (n *SNSNotifier) Close() error { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = (*SNSNotifier)(nil)
)
