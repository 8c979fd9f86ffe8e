// Package parser turns fetched response bodies into chapters according
// to a target's parse mode and extraction configuration.
package parser

import (
	"fmt"
	"slices"
	"time"

	"manga_bot/internal/model"
)

// Parse extracts chapters from a response body using the target's parse
// mode. The returned chapters are ordered oldest first.
func Parse(target model.Target, body string) ([]model.Chapter, error) {
	switch target.Mode {
	case model.ModeRSS:
		return parseRSS(target, body)
	case model.ModeJSON:
		return parseJSON(target, body)
	case model.ModeHTML:
		return parseHTML(target, body)
	case model.ModeJSONInHTML:
		return parseJSONInHTML(target, body)
	default:
		return nil, fmt.Errorf("unknown parse mode %q", target.Mode)
	}
}

// finalize applies the target's announce delay and normalizes chapter
// order to oldest first. Sources listing newest chapters first are
// reversed.
func finalize(target model.Target, chapters []model.Chapter) []model.Chapter {
	delay := time.Duration(target.DelayDays) * 24 * time.Hour
	for i := range chapters {
		chapters[i].AnnouncedAt = chapters[i].Date.Add(delay)
	}
	if !target.Ascending {
		slices.Reverse(chapters)
	}
	return chapters
}

// resolveLink applies the target's base URL to a possibly-relative link.
func resolveLink(target model.Target, link string) string {
	if target.BaseURL == "" {
		return link
	}
	return MakeLink(target.BaseURL, link)
}
