package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaEmitter produces transfer-completed events to a Kafka topic, keyed by
// sender account so one account's events stay ordered within a partition.
type KafkaEmitter struct {
	client *kgo.Client
	topic  string
}

// NewKafkaEmitter connects to the brokers and ensures the topic exists.
// Topic creation losing a race with another instance is fine.
func NewKafkaEmitter(ctx context.Context, brokers []string, topic string) (*KafkaEmitter, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure topic %q: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure topic %q: %w", topic, resp.Err)
	}

	return &KafkaEmitter{client: client, topic: topic}, nil
}

func (k *KafkaEmitter) EmitTransferCompleted(ctx context.Context, ev TransferCompletedEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal transfer event: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(ev.SenderAccountID.String()),
		Value: value,
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce transfer event: %w", err)
	}
	return nil
}

func (k *KafkaEmitter) Close() {
	k.client.Close()
}
