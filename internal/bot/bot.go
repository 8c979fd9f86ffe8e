package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"manga_bot/internal/config"
	"manga_bot/internal/model"
	"manga_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Dispatcher lets command handlers start core jobs without blocking on
// them.
type Dispatcher interface {
	TriggerFetch()
	TriggerAnnounceAll()
	TriggerServerAnnounce(server model.Server)
}

// Bot is the Telegram connection that handles user commands and
// delivers chapter announcements.
type Bot struct {
	api        telegramAPI
	store      storage.Storage
	cfg        *config.Config
	dispatcher Dispatcher
	log        *slog.Logger
}

// New creates a Bot with the given Telegram token, storage, and config.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:   api,
		store: store,
		cfg:   cfg,
		log:   log,
	}, nil
}

// SetDispatcher wires the job dispatcher after construction. The bot
// and the dispatcher reference each other, so one side is set late.
func (b *Bot) SetDispatcher(d Dispatcher) {
	b.dispatcher = d
}

// Connect registers the command menu with Telegram. Returning nil
// means the connection is ready to deliver announcements.
func (b *Bot) Connect(_ context.Context) error {
	menu := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "help", Description: "Show available commands"},
		tgbotapi.BotCommand{Command: "fetch", Description: "Fetch all sources now"},
		tgbotapi.BotCommand{Command: "announce", Description: "Announce pending chapters here"},
		tgbotapi.BotCommand{Command: "announce_all", Description: "Announce pending chapters everywhere"},
		tgbotapi.BotCommand{Command: "set_feed_channel", Description: "Receive announcements in this chat"},
		tgbotapi.BotCommand{Command: "subscribe", Description: "Get pinged when a manga updates"},
		tgbotapi.BotCommand{Command: "unsubscribe", Description: "Drop a subscription"},
		tgbotapi.BotCommand{Command: "subscriptions", Description: "List your subscriptions"},
	)
	if _, err := b.api.Request(menu); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}

	b.log.Info("command menu registered")
	return nil
}

// Run starts the bot's long-polling loop, blocking until ctx is
// cancelled or the update stream breaks.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("update stream closed")
			}
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// Disconnect stops the update loop and removes the command menu.
func (b *Bot) Disconnect(_ context.Context) error {
	b.api.StopReceivingUpdates()
	if _, err := b.api.Request(tgbotapi.NewDeleteMyCommands()); err != nil {
		return fmt.Errorf("deregister commands: %w", err)
	}
	return nil
}

// SendChapter delivers one chapter announcement to a feed channel.
func (b *Bot) SendChapter(_ context.Context, channelID string, ch model.Chapter) error {
	chatID, err := parseChannelID(channelID)
	if err != nil {
		return err
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, FormatChapter(ch))); err != nil {
		return fmt.Errorf("send chapter: %w", err)
	}
	return nil
}

// SendText delivers a Markdown-formatted message to a feed channel.
func (b *Bot) SendText(_ context.Context, channelID, text string) error {
	chatID, err := parseChannelID(channelID)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	return nil
}

func parseChannelID(channelID string) (int64, error) {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad channel id %q: %w", channelID, err)
	}
	return chatID, nil
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID
	userID := msg.From.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "fetch":
		b.handleFetch(chatID)
	case "announce":
		b.handleAnnounce(ctx, chatID)
	case "announce_all":
		b.handleAnnounceAll(chatID)
	case "set_feed_channel":
		b.handleSetFeedChannel(ctx, chatID)
	case "subscribe":
		b.handleSubscribe(ctx, chatID, userID, args)
	case "unsubscribe":
		b.handleUnsubscribe(ctx, chatID, userID, args)
	case "subscriptions":
		b.handleSubscriptions(ctx, chatID, userID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
