// Package telegram posts tracker notifications to a single Telegram chat.
// Reports with many stocks can exceed Telegram's message length limit, so
// long texts are split on line boundaries and sent as consecutive messages.
package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram rejects messages longer than 4096 characters; stay under it so a
// chunk plus its Markdown entities always fits.
const maxMessageLen = 4000

// Client sends Markdown messages to one chat.
type Client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewClient validates the bot token against the Telegram API and returns a
// Client bound to the chat.
func NewClient(botToken string, chatID int64) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Client{bot: bot, chatID: chatID}, nil
}

// SendMessage sends the text as one or more Markdown messages, splitting on
// newlines when it exceeds the length limit. Sending stops at the first
// failed chunk.
func (c *Client) SendMessage(text string) error {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(c.chatID, chunk)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		if _, err := c.bot.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if b.Len() > 0 && b.Len()+len(line)+1 > limit {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
