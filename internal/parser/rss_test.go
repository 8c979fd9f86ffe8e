package parser

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"manga_bot/internal/model"
)

func TestParseRSS(t *testing.T) {
	body := loadFixture(t, "feed.xml")

	target := model.Target{
		Name:    "Test Manga",
		Source:  "https://comic-rss.com/test.rss",
		Mode:    model.ModeRSS,
		BaseURL: "https://comic-rss.com",
	}

	want := []model.Chapter{
		{
			Manga:       "Test Manga",
			Number:      "00023",
			Title:       "Part 23: The Alpha",
			URL:         "https://comic-rss.com/episode/00023",
			Date:        time.Date(2022, time.September, 16, 3, 0, 0, 0, time.UTC),
			AnnouncedAt: time.Date(2022, time.September, 16, 3, 0, 0, 0, time.UTC),
		},
		{
			Manga:       "Test Manga",
			Number:      "00024",
			Title:       "Part 24: The Omega",
			URL:         "https://comic-rss.com/episode/00024",
			Date:        time.Date(2022, time.September, 23, 3, 0, 0, 0, time.UTC),
			AnnouncedAt: time.Date(2022, time.September, 23, 3, 0, 0, 0, time.UTC),
		},
	}

	got, err := Parse(target, body)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("chapters mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRSSAscendingSourceKeepsOrder(t *testing.T) {
	body := loadFixture(t, "feed.xml")

	target := model.Target{
		Name:      "Test Manga",
		Source:    "https://comic-rss.com/test.rss",
		Ascending: true,
		Mode:      model.ModeRSS,
	}

	got, err := Parse(target, body)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(got))
	}
	if got[0].Number != "00024" || got[1].Number != "00023" {
		t.Errorf("expected source order kept, got %q then %q", got[0].Number, got[1].Number)
	}
}

func TestParseRSSInvalidFeed(t *testing.T) {
	target := model.Target{Name: "x", Mode: model.ModeRSS}
	if _, err := Parse(target, "not a feed at all"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestParseRSSItemWithoutLink(t *testing.T) {
	body := `<?xml version="1.0"?>
<rss version="2.0">
    <channel>
        <title>Broken</title>
        <item>
            <title>No link here</title>
            <guid>1</guid>
        </item>
    </channel>
</rss>`

	target := model.Target{Name: "x", Mode: model.ModeRSS}
	if _, err := Parse(target, body); err == nil {
		t.Fatal("expected error, got nil")
	}
}
