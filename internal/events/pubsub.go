// Package events publishes note-created notifications so downstream
// consumers (vault sync, digests) can react without polling the notes
// directory.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/clipfeed/notepress/internal/pipeline"
)

// PubSubPublisher emits NoteEvents to a Google Cloud Pub/Sub topic.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

// NewPubSubPublisher connects to the topic and verifies it exists up front so
// a misconfigured deployment fails at startup rather than mid-run.
func NewPubSubPublisher(ctx context.Context, projectID, topicID string, logger *zap.Logger) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	ok, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check topic %s: %w", topicID, err)
	}
	if !ok {
		_ = client.Close()
		return nil, fmt.Errorf("topic %s does not exist in project %s", topicID, projectID)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PubSubPublisher{client: client, topic: topic, logger: logger}, nil
}

// Publish marshals the event to JSON and waits for the broker to acknowledge
// it.
func (p *PubSubPublisher) Publish(ctx context.Context, event pipeline.NoteEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal note event: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"run_id": event.RunID},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish note event: %w", err)
	}
	p.logger.Debug("note event published",
		zap.String("message_id", id),
		zap.String("note", event.NoteName))
	return nil
}

// Close flushes pending publishes and releases the client.
func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
