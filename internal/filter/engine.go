// Package filter matches manga names against user subscriptions.
package filter

import (
	"strings"

	"manga_bot/internal/model"
)

// Match returns the subscriptions whose title occurs in the manga name,
// compared case-insensitively. A subscription for "one piece" matches
// announcements for both "One Piece" and "One Piece Special".
func Match(manga string, subs []model.Subscription) []model.Subscription {
	name := strings.ToLower(manga)

	var matched []model.Subscription
	for _, sub := range subs {
		if sub.Title == "" {
			continue
		}
		if strings.Contains(name, strings.ToLower(sub.Title)) {
			matched = append(matched, sub)
		}
	}
	return matched
}
