package parser

import (
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"manga_bot/internal/model"
)

// parseRSS extracts chapters from an RSS or Atom feed. A feed item
// without a link fails the whole parse.
func parseRSS(target model.Target, body string) ([]model.Chapter, error) {
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("target %q: parse feed: %w", target.Name, err)
	}

	chapters := make([]model.Chapter, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := item.Link
		if link == "" && len(item.Links) > 0 {
			link = item.Links[0]
		}
		if link == "" {
			return nil, fmt.Errorf("target %q: feed item %q has no link", target.Name, item.Title)
		}

		date := time.Now().UTC()
		if item.PublishedParsed != nil {
			date = item.PublishedParsed.UTC()
		}

		chapters = append(chapters, model.Chapter{
			Manga:  target.Name,
			Number: item.GUID,
			Title:  item.Title,
			Date:   date,
			URL:    resolveLink(target, link),
		})
	}

	return finalize(target, chapters), nil
}
