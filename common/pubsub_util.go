package common

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"cloud.google.com/go/pubsub"
)

// PubSubMessageData points at an object in Cloud Storage. It is the payload
// both consumed by the message-triggered function and published after a
// fragment has been written.
type PubSubMessageData struct {
	Bucket   string `json:"bucket"`
	FilePath string `json:"file_path"`
}

func SendPubSubMessage(ctx context.Context, topic *pubsub.Topic, data PubSubMessageData) error {
	// メッセージデータをJSONに変換
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	result := topic.Publish(ctx, &pubsub.Message{
		Data: jsonData,
		Attributes: map[string]string{
			"bucket":       data.Bucket,
			"content_type": "text/xml",
		},
	})

	// メッセージIDを取得してログに記録
	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("get publish result: %w", err)
	}
	log.Printf("Published message with ID: %s", id)

	return nil
}

// PubSubMessageSenderFactory binds a sender to one topic of client. The
// returned stop function flushes pending messages and must be called once
// sending is done.
func PubSubMessageSenderFactory(ctx context.Context, client *pubsub.Client, topicID string) (func(msgData PubSubMessageData) error, func()) {
	topic := client.Topic(topicID)
	send := func(msgData PubSubMessageData) error {
		if err := SendPubSubMessage(ctx, topic, msgData); err != nil {
			return fmt.Errorf("SendPubSubMessage: %w", err)
		}
		return nil
	}
	return send, topic.Stop
}
