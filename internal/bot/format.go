package bot

import (
	"fmt"
	"strings"

	"manga_bot/internal/model"
)

const dateLayout = "2006-01-02"

// FormatChapter formats a chapter as a Telegram announcement message.
func FormatChapter(ch model.Chapter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", ch.Manga, ch.Title)
	fmt.Fprintf(&b, "Released %s", ch.Date.Format(dateLayout))
	if ch.URL != "" {
		b.WriteString("\n\n")
		b.WriteString(ch.URL)
	}
	return b.String()
}

// FormatSubscriberPing builds the Markdown message that mentions every
// subscriber of a manga after its chapters were announced.
func FormatSubscriberPing(manga string, userIDs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New chapter of %s is out!", manga)
	for _, id := range userIDs {
		fmt.Fprintf(&b, " [reader](tg://user?id=%s)", id)
	}
	return b.String()
}

// FormatSubscriptionList formats a user's subscriptions for display.
func FormatSubscriptionList(subs []model.Subscription) string {
	var b strings.Builder
	b.WriteString("Your subscriptions:\n")
	for i, sub := range subs {
		fmt.Fprintf(&b, "\n%d. %s (since %s)", i+1, sub.Title, sub.CreatedAt.Format(dateLayout))
	}
	return b.String()
}
