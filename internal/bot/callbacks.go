package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Callbacks from inaccessible messages carry no message at all.
	if cb.Message == nil {
		return
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID

	ack := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Request(ack); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return
	}

	action := parts[0]
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return
	}

	b.log.Info("callback",
		"action", action,
		"id", id,
		"chat_id", chatID,
		"user_id", cb.From.ID,
	)

	switch action {
	case "unsub":
		b.handleUnsubscribeCallback(ctx, chatID, cb.From.ID, id)
	}
}

// handleUnsubscribeCallback removes a subscription picked from the
// inline list. The subscription must belong to the pressing user in
// the chat the button lives in.
func (b *Bot) handleUnsubscribeCallback(ctx context.Context, chatID, userID, id int64) {
	sub, err := b.store.GetSubscription(ctx, id)
	if err != nil {
		b.reply(chatID, "Subscription not found.")
		return
	}
	if sub.ServerIdentifier != strconv.FormatInt(chatID, 10) || sub.UserID != strconv.FormatInt(userID, 10) {
		b.reply(chatID, "Subscription not found.")
		return
	}

	if err := b.store.RemoveSubscription(ctx, id); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Unsubscribed from %q.", sub.Title))
}
