// Package redissink implements alert.Sink by publishing to a Redis pub/sub
// channel. This is the Processor's default sink in cmd/processor when no
// Slack credentials are configured.
package redissink

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Sink publishes alerts as JSON envelopes on a single Redis channel.
type Sink struct {
	client  *redis.Client
	channel string
}

// New returns a Sink publishing to channel on client.
func New(client *redis.Client, channel string) *Sink {
	return &Sink{client: client, channel: channel}
}

// envelope is the wire shape published on the channel; attributes travels
// alongside the formatted body so subscribers can filter without parsing
// the free-text message.
type envelope struct {
	Subject    string            `json:"subject"`
	Body       string            `json:"body"`
	Attributes map[string]string `json:"attributes"`
}

// Publish publishes subject/body/attributes as a JSON-encoded message.
func (s *Sink) Publish(ctx context.Context, subject, body string, attributes map[string]string) error {
	payload, err := json.Marshal(envelope{Subject: subject, Body: body, Attributes: attributes})
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, payload).Err()
}
