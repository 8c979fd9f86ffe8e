package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"manga_bot/internal/model"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to Manga Notify Bot!

Get new manga chapters announced in this chat.

Quick start:
1. /set_feed_channel — announce new chapters here
2. /fetch — pull all sources now
3. /subscribe <title> — get pinged when a title updates

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Announcements:
/set_feed_channel — receive chapter announcements in this chat
/fetch — fetch all sources now (announces afterwards)
/announce — announce pending chapters in this chat
/announce_all — announce pending chapters in every chat

Subscriptions:
/subscribe <title> — get pinged when a matching manga updates
/unsubscribe <title> — drop one of your subscriptions
/subscriptions — list your subscriptions`)
}

func (b *Bot) handleFetch(chatID int64) {
	b.dispatcher.TriggerFetch()
	b.reply(chatID, "Fetch started. New chapters will be announced shortly.")
}

func (b *Bot) handleAnnounce(ctx context.Context, chatID int64) {
	identifier := strconv.FormatInt(chatID, 10)

	srv, err := b.store.GetServer(ctx, identifier)
	if err != nil || srv.ChannelID == "" {
		b.reply(chatID, "No feed channel configured here. Use /set_feed_channel first.")
		return
	}

	b.dispatcher.TriggerServerAnnounce(*srv)
	b.reply(chatID, "Announce started for this chat.")
}

func (b *Bot) handleAnnounceAll(chatID int64) {
	b.dispatcher.TriggerAnnounceAll()
	b.reply(chatID, "Announce started for every chat.")
}

func (b *Bot) handleSetFeedChannel(ctx context.Context, chatID int64) {
	identifier := strconv.FormatInt(chatID, 10)

	// A Telegram chat is its own feed channel.
	if err := b.store.SetFeedChannel(ctx, identifier, identifier); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save feed channel: %v", err))
		return
	}
	b.reply(chatID, "This chat will now receive chapter announcements.")
}

func (b *Bot) handleSubscribe(ctx context.Context, chatID, userID int64, args string) {
	title, err := ParseTitleArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /subscribe <manga title>")
		return
	}

	sub := model.Subscription{
		ServerIdentifier: strconv.FormatInt(chatID, 10),
		UserID:           strconv.FormatInt(userID, 10),
		Title:            title,
	}
	if err := b.store.AddSubscription(ctx, &sub); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save subscription: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Subscribed to %q. You will be pinged when it updates.", title))
}

func (b *Bot) handleUnsubscribe(ctx context.Context, chatID, userID int64, args string) {
	title, err := ParseTitleArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /unsubscribe <manga title>")
		return
	}

	subs, err := b.store.ListUserSubscriptions(ctx, strconv.FormatInt(chatID, 10), strconv.FormatInt(userID, 10))
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	for _, sub := range subs {
		if !strings.EqualFold(sub.Title, title) {
			continue
		}
		if err := b.store.RemoveSubscription(ctx, sub.ID); err != nil {
			b.reply(chatID, fmt.Sprintf("Error: %v", err))
			return
		}
		b.reply(chatID, fmt.Sprintf("Unsubscribed from %q.", sub.Title))
		return
	}
	b.reply(chatID, fmt.Sprintf("You are not subscribed to %q.", title))
}

func (b *Bot) handleSubscriptions(ctx context.Context, chatID, userID int64) {
	subs, err := b.store.ListUserSubscriptions(ctx, strconv.FormatInt(chatID, 10), strconv.FormatInt(userID, 10))
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(subs) == 0 {
		b.reply(chatID, "You have no subscriptions. Use /subscribe <title> to add one.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, FormatSubscriptionList(subs))
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, sub := range subs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("Unsubscribe: %s", sub.Title),
				fmt.Sprintf("unsub:%d", sub.ID),
			),
		))
	}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)

	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send subscription list", "chat_id", chatID, "error", err)
	}
}
