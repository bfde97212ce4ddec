// Package slacksink implements alert.Sink by posting formatted alert text
// to a Slack channel via github.com/slack-go/slack.
package slacksink

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Sink posts alerts to a fixed Slack channel.
type Sink struct {
	client  *slack.Client
	channel string
}

// New returns a Sink that posts to channel using token, a Slack bot token
// (xoxb-...).
func New(token, channel string) *Sink {
	return &Sink{client: slack.New(token), channel: channel}
}

// Publish posts subject and body as a single Slack message. attributes are
// rendered as a trailing context line since Slack messages carry no
// first-class attribute concept.
func (s *Sink) Publish(ctx context.Context, subject, body string, attributes map[string]string) error {
	text := fmt.Sprintf("*%s*\n```%s```", subject, body)
	if len(attributes) > 0 {
		text += "\n" + formatAttributes(attributes)
	}
	_, _, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(text, false))
	return err
}

func formatAttributes(attributes map[string]string) string {
	out := ""
	for k, v := range attributes {
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("`%s=%s`", k, v)
	}
	return out
}
