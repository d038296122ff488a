// Package notifier delivers formatted messages to the configured channels.
// Slack is the primary channel; Telegram is attached when a bot token is
// configured.
package notifier

import (
	"golang-stock-tracker/pkg/logger"
)

// Notifier delivers one markdown message to a channel.
type Notifier interface {
	SendMessage(text string) error
}

// Multi fans one message out to every attached channel. Delivery failures
// are logged per channel and never abort the remaining channels.
type Multi struct {
	channels []Notifier
	log      *logger.Logger
}

// NewMulti creates a fan-out notifier over the given channels.
func NewMulti(log *logger.Logger, channels ...Notifier) *Multi {
	return &Multi{channels: channels, log: log}
}

// SendMessage delivers the message to every channel, returning the first
// error after all channels were attempted.
func (m *Multi) SendMessage(text string) error {
	var firstErr error
	for _, ch := range m.channels {
		if err := ch.SendMessage(text); err != nil {
			m.log.Error("Failed to deliver notification", logger.ErrorField(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// noop swallows messages when no channel is configured, so dry runs and
// unconfigured environments still exercise the full pipeline.
type noop struct{}

// NewNoop creates a notifier that discards every message.
func NewNoop() Notifier {
	return noop{}
}

func (noop) SendMessage(string) error { return nil }

// logNotifier writes messages to the log instead of a channel. Used by dry
// runs.
type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a notifier that logs messages instead of sending.
func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) SendMessage(text string) error {
	n.log.Info("Dry-run notification", logger.StringField("message", text))
	return nil
}
