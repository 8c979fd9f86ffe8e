// Package model defines the domain types used across the application.
package model

import "time"

// ParseMode selects how a target's response body is turned into chapters.
type ParseMode string

// Supported parse modes.
const (
	ModeRSS        ParseMode = "rss"
	ModeJSON       ParseMode = "json"
	ModeHTML       ParseMode = "html"
	ModeJSONInHTML ParseMode = "jsoninhtml"
)

// Target describes a single manga source to poll.
type Target struct {
	Name           string
	Source         string
	Ascending      bool
	Mode           ParseMode
	BaseURL        string
	DelayDays      int
	RequestHeaders map[string]string
	Keys           *TargetKeys
	Tags           *TargetTags
}

// TargetKeys configures extraction for the json and jsoninhtml modes.
// Paths are dot-separated and may index into arrays ("data.0.title").
// Number and Title may list several paths; the non-empty values are
// joined with a single space in declaration order.
type TargetKeys struct {
	Chapters   string
	Number     []string
	Title      []string
	Date       string
	DateFormat string
	URL        string
	Skip       map[string]any
}

// TargetTags configures extraction for the html and jsoninhtml modes.
// Each field pairs a CSS selector with an optional attribute name; an
// empty attribute means the element's text content.
type TargetTags struct {
	ChaptersTag     string
	NumberTag       string
	NumberAttribute string
	TitleTag        string
	TitleAttribute  string
	DateTag         string
	DateAttribute   string
	DateFormat      string
	URLTag          string
	URLAttribute    string
}

// Chapter is a single released chapter of a manga. Two chapters are the
// same release when Manga, Title and Number all match.
type Chapter struct {
	ID          int64
	Manga       string
	Title       string
	Number      string
	URL         string
	Date        time.Time
	LoggedAt    time.Time
	AnnouncedAt time.Time
}

// Server is an announcement destination. Identifier is the chat ID as
// text; ChannelID is empty until a feed channel has been configured.
type Server struct {
	ID              int64
	Identifier      string
	ChannelID       string
	LastAnnouncedAt *time.Time
	IsAnnouncing    bool
}

// Subscription lets a user get pinged when new chapters of a matching
// manga are announced in a server.
type Subscription struct {
	ID               int64
	ServerIdentifier string
	UserID           string
	Title            string
	CreatedAt        time.Time
}
