package telegram

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/internal/adapters/config"
	"github.com/selivandex/spectrum-feed/internal/events"
	"github.com/selivandex/spectrum-feed/internal/feed"
	"github.com/selivandex/spectrum-feed/pkg/logger"
	"github.com/selivandex/spectrum-feed/pkg/templates"
)

//go:embed messages/*.tmpl
var messages embed.FS

const (
	postCreatedTemplate     = "post_created.tmpl"
	commentsCreatedTemplate = "comments_created.tmpl"
)

// sender is the part of tgbotapi.BotAPI the notifier needs
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier announces new posts and comments in a Telegram channel
type Notifier struct {
	api       sender
	chatID    int64
	templates templates.Renderer
}

type postMessage struct {
	Title       string
	Spectrum    string
	Description string
	Link        string
}

type commentsMessage struct {
	Title        string
	Count        int
	Commentators []string
}

// NewNotifier creates new Telegram notifier
func NewNotifier(cfg config.TelegramConfig) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
		zap.Int64("chat_id", cfg.ChatID),
	)

	return newNotifier(bot, cfg.ChatID)
}

func newNotifier(api sender, chatID int64) (*Notifier, error) {
	sub, err := fs.Sub(messages, "messages")
	if err != nil {
		return nil, err
	}
	tmpl, err := templates.NewManagerFS(sub)
	if err != nil {
		return nil, err
	}
	return &Notifier{api: api, chatID: chatID, templates: tmpl}, nil
}

// Publish announces post.created and comments.created; other events are ignored
func (n *Notifier) Publish(_ context.Context, evt events.Event) error {
	if evt.Post == nil {
		return nil
	}

	var (
		text string
		err  error
	)
	switch evt.Type {
	case events.PostCreated:
		text, err = n.templates.ExecuteTemplate(postCreatedTemplate, postMessage{
			Title:       evt.Post.Title,
			Spectrum:    string(evt.Post.Spectrum),
			Description: feed.Describe(evt.Post.Entities),
			Link:        evt.Post.Link,
		})
	case events.CommentsCreated:
		msg := commentsMessage{Title: evt.Post.Title, Count: len(evt.Comments)}
		for _, c := range evt.Comments {
			if c.Commentator != nil {
				msg.Commentators = append(msg.Commentators, *c.Commentator)
			}
		}
		text, err = n.templates.ExecuteTemplate(commentsCreatedTemplate, msg)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	return n.sendMessage(text)
}

func (n *Notifier) sendMessage(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)

	if _, err := n.api.Send(msg); err != nil {
		logger.Error("failed to send telegram message",
			zap.Int64("chat_id", n.chatID),
			zap.Error(err),
		)
		return err
	}

	return nil
}
