package parser

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"manga_bot/internal/model"
)

func jsonTarget() model.Target {
	return model.Target{
		Name:    "Test Manga",
		Source:  "https://comic-json.com/test.json",
		Mode:    model.ModeJSON,
		BaseURL: "https://comic-json.com",
		Keys: &model.TargetKeys{
			Chapters: "comic.episodes",
			Number:   []string{"volume"},
			Title:    []string{"volume", "title"},
			Date:     "publish_start",
			URL:      "page_url",
			Skip:     map[string]any{"readable": false},
		},
	}
}

func TestParseJSON(t *testing.T) {
	body := loadFixture(t, "episodes.json")

	want := []model.Chapter{
		{
			Manga:       "Test Manga",
			Number:      "Chapter 105",
			Title:       "Chapter 105 Here comes",
			URL:         "https://comic-json.com/comics/json/112",
			Date:        time.Date(2022, time.September, 27, 1, 0, 0, 0, time.UTC),
			AnnouncedAt: time.Date(2022, time.September, 27, 1, 0, 0, 0, time.UTC),
		},
		{
			Manga:       "Test Manga",
			Number:      "Chapter 106",
			Title:       "Chapter 106 Dat Boi",
			URL:         "https://comic-json.com/comics/json/113",
			Date:        time.Date(2022, time.October, 11, 1, 0, 0, 0, time.UTC),
			AnnouncedAt: time.Date(2022, time.October, 11, 1, 0, 0, 0, time.UTC),
		},
	}

	got, err := Parse(jsonTarget(), body)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("chapters mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSONDelayShiftsAnnounceTime(t *testing.T) {
	body := loadFixture(t, "episodes.json")
	target := jsonTarget()
	target.DelayDays = 7

	got, err := Parse(target, body)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	for _, ch := range got {
		want := ch.Date.Add(7 * 24 * time.Hour)
		if !ch.AnnouncedAt.Equal(want) {
			t.Errorf("chapter %q announce time %v, want %v", ch.Number, ch.AnnouncedAt, want)
		}
	}
}

func TestParseJSONSkipConditions(t *testing.T) {
	body := `{"list": [
		{"n": "1", "t": "a", "d": "2022-01-01T00:00:00Z", "u": "/1", "state": "paid"},
		{"n": "2", "t": "b", "d": "2022-01-02T00:00:00Z", "u": "/2", "state": "free"},
		{"n": "3", "t": "c", "d": "2022-01-03T00:00:00Z", "u": "/3", "level": 3},
		{"n": "4", "t": "d", "d": "2022-01-04T00:00:00Z", "u": "/4"}
	]}`

	target := model.Target{
		Name:      "Skippy",
		Source:    "https://x.com",
		Ascending: true,
		Mode:      model.ModeJSON,
		Keys: &model.TargetKeys{
			Chapters: "list",
			Number:   []string{"n"},
			Title:    []string{"t"},
			Date:     "d",
			URL:      "u",
			Skip:     map[string]any{"state": "paid", "level": int64(3)},
		},
	}

	got, err := Parse(target, body)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	var numbers []string
	for _, ch := range got {
		numbers = append(numbers, ch.Number)
	}
	if diff := cmp.Diff([]string{"2", "4"}, numbers); diff != "" {
		t.Errorf("numbers mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSONElementErrorsSkipElement(t *testing.T) {
	body := `{"list": [
		{"n": "1", "t": "a", "d": "2022-01-01T00:00:00Z", "u": "/1"},
		{"t": "missing number", "d": "2022-01-02T00:00:00Z", "u": "/2"},
		{"n": "3", "t": "c", "d": "not a date", "u": "/3"},
		{"n": "4", "t": "d", "d": "2022-01-04T00:00:00Z", "u": true}
	]}`

	target := model.Target{
		Name:      "Partial",
		Source:    "https://x.com",
		Ascending: true,
		Mode:      model.ModeJSON,
		Keys: &model.TargetKeys{
			Chapters: "list",
			Number:   []string{"n"},
			Title:    []string{"t"},
			Date:     "d",
			URL:      "u",
		},
	}

	got, err := Parse(target, body)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(got) != 1 || got[0].Number != "1" {
		t.Errorf("expected only chapter 1 to survive, got %+v", got)
	}
}

func TestParseJSONIntegerValues(t *testing.T) {
	body := `{"list": [
		{"id": 48286, "name": "CH 1", "d": "2023-10-26T00:00:00Z"}
	]}`

	target := model.Target{
		Name:      "Ints",
		Source:    "https://x.com",
		Ascending: true,
		Mode:      model.ModeJSON,
		BaseURL:   "https://x.com/viewer/",
		Keys: &model.TargetKeys{
			Chapters: "list",
			Number:   []string{"id"},
			Title:    []string{"name"},
			Date:     "d",
			URL:      "id",
		},
	}

	got, err := Parse(target, body)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(got))
	}
	if got[0].Number != "48286" {
		t.Errorf("number = %q, want %q", got[0].Number, "48286")
	}
	if got[0].URL != "https://x.com/viewer/48286" {
		t.Errorf("url = %q, want %q", got[0].URL, "https://x.com/viewer/48286")
	}
}

func TestParseJSONEmptyPartsDropped(t *testing.T) {
	body := `{"list": [
		{"vol": "", "name": "Solo", "d": "2022-01-01T00:00:00Z", "u": "/1"}
	]}`

	target := model.Target{
		Name:      "Joins",
		Source:    "https://x.com",
		Ascending: true,
		Mode:      model.ModeJSON,
		Keys: &model.TargetKeys{
			Chapters: "list",
			Number:   []string{"vol", "name"},
			Title:    []string{"name"},
			Date:     "d",
			URL:      "u",
		},
	}

	got, err := Parse(target, body)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(got))
	}
	if got[0].Number != "Solo" {
		t.Errorf("number = %q, want %q", got[0].Number, "Solo")
	}
}

func TestParseJSONStructuralErrors(t *testing.T) {
	target := model.Target{
		Name:   "Broken",
		Source: "https://x.com",
		Mode:   model.ModeJSON,
		Keys: &model.TargetKeys{
			Chapters: "comic.episodes",
			Number:   []string{"n"},
			Title:    []string{"t"},
			Date:     "d",
			URL:      "u",
		},
	}

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"comic": `},
		{"chapters path missing", `{"comic": {}}`},
		{"chapters path not an array", `{"comic": {"episodes": "nope"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(target, tt.body); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
