package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/tidwall/gjson"
)

// Date format names accepted by the json modes. Any other non-empty
// value is treated as a strftime pattern.
const (
	formatUnixSec   = "unixsec"
	formatUnix      = "unix"
	formatUnixMilli = "unixmilli"
	formatUnixNano  = "unixnano"
	formatRFC2822   = "rfc2822"
	formatRFC3339   = "rfc3339"
)

// rfc2822Layouts covers the accepted spellings of header-style dates.
var rfc2822Layouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
}

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

const dateOnlyLayout = "2006-01-02"

type dateParser func(v gjson.Result) (time.Time, error)

// newJSONDateParser resolves a configured date format name into a parse
// function. The unix variants require a JSON number, the named string
// formats a JSON string. An unrecognized name is compiled as a strftime
// pattern; a pattern that does not compile fails the whole parse rather
// than single elements.
func newJSONDateParser(format string) (dateParser, error) {
	switch format {
	case formatUnixSec:
		return func(v gjson.Result) (time.Time, error) {
			n, err := jsonInt(v)
			if err != nil {
				return time.Time{}, err
			}
			return time.Unix(n, 0).UTC(), nil
		}, nil
	case formatUnix, formatUnixMilli:
		return func(v gjson.Result) (time.Time, error) {
			n, err := jsonInt(v)
			if err != nil {
				return time.Time{}, err
			}
			return time.UnixMilli(n).UTC(), nil
		}, nil
	case formatUnixNano:
		return func(v gjson.Result) (time.Time, error) {
			n, err := jsonInt(v)
			if err != nil {
				return time.Time{}, err
			}
			return time.Unix(0, n).UTC(), nil
		}, nil
	case formatRFC2822:
		return func(v gjson.Result) (time.Time, error) {
			s, err := jsonString(v)
			if err != nil {
				return time.Time{}, err
			}
			return parseRFC2822(s)
		}, nil
	case "", formatRFC3339:
		return func(v gjson.Result) (time.Time, error) {
			s, err := jsonString(v)
			if err != nil {
				return time.Time{}, err
			}
			return parseRFC3339(s)
		}, nil
	default:
		layout, err := strftime.Layout(format)
		if err != nil {
			return nil, fmt.Errorf("date pattern %q: %w", format, err)
		}
		return func(v gjson.Result) (time.Time, error) {
			s, err := jsonString(v)
			if err != nil {
				return time.Time{}, err
			}
			t, err := time.Parse(layout, strings.TrimSpace(s))
			if err != nil {
				return time.Time{}, fmt.Errorf("date %q does not match pattern %q", s, format)
			}
			return t.UTC(), nil
		}, nil
	}
}

// newHTMLDateParser resolves the date format for html targets. Without a
// pattern the layout is detected from the value: text with a clock
// component parses as a datetime, anything else as a bare date at
// midnight UTC.
func newHTMLDateParser(format string) (func(string) (time.Time, error), error) {
	if format != "" {
		layout, err := strftime.Layout(format)
		if err != nil {
			return nil, fmt.Errorf("date pattern %q: %w", format, err)
		}
		return func(s string) (time.Time, error) {
			t, err := time.Parse(layout, strings.TrimSpace(s))
			if err != nil {
				return time.Time{}, fmt.Errorf("date %q does not match pattern %q", s, format)
			}
			return t.UTC(), nil
		}, nil
	}

	return func(s string) (time.Time, error) {
		s = strings.TrimSpace(s)
		if strings.Contains(s, ":") {
			for _, layout := range datetimeLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t.UTC(), nil
				}
			}
			return time.Time{}, fmt.Errorf("invalid datetime %q", s)
		}
		t, err := time.Parse(dateOnlyLayout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q", s)
		}
		return t.UTC(), nil
	}, nil
}

func parseRFC2822(s string) (time.Time, error) {
	for _, layout := range rfc2822Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid rfc2822 date %q", s)
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid rfc3339 date %q", s)
	}
	return t.UTC(), nil
}

func jsonInt(v gjson.Result) (int64, error) {
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("date value %s is not a number", v.Type)
	}
	return v.Int(), nil
}

func jsonString(v gjson.Result) (string, error) {
	if v.Type != gjson.String {
		return "", fmt.Errorf("date value %s is not a string", v.Type)
	}
	return v.Str, nil
}
