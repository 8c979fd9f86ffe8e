package parser

import (
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func TestJSONDateFormats(t *testing.T) {
	reference := time.Date(2022, time.September, 16, 3, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		format  string
		value   string
		want    time.Time
		wantErr bool
	}{
		{
			name:   "unixsec",
			format: "unixsec",
			value:  `1663297200`,
			want:   reference,
		},
		{
			name:   "unix is milliseconds",
			format: "unix",
			value:  `1663297200000`,
			want:   reference,
		},
		{
			name:   "unixmilli",
			format: "unixmilli",
			value:  `1663297200000`,
			want:   reference,
		},
		{
			name:   "unixnano",
			format: "unixnano",
			value:  `1663297200000000000`,
			want:   reference,
		},
		{
			name:   "rfc2822",
			format: "rfc2822",
			value:  `"Fri, 16 Sep 2022 03:00:00 +0000"`,
			want:   reference,
		},
		{
			name:   "default is rfc3339",
			format: "",
			value:  `"2022-09-16T03:00:00Z"`,
			want:   reference,
		},
		{
			name:   "rfc3339 with offset",
			format: "rfc3339",
			value:  `"2022-09-16T12:00:00+09:00"`,
			want:   reference,
		},
		{
			name:   "strftime pattern",
			format: "%Y/%m/%d",
			value:  `"2023/11/02"`,
			want:   time.Date(2023, time.November, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "unix format rejects strings",
			format:  "unixsec",
			value:   `"1663297200"`,
			wantErr: true,
		},
		{
			name:    "rfc3339 rejects numbers",
			format:  "",
			value:   `1663297200`,
			wantErr: true,
		},
		{
			name:    "unparsable string",
			format:  "",
			value:   `"yesterday"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parse, err := newJSONDateParser(tt.format)
			if err != nil {
				t.Fatalf("newJSONDateParser(%q) error: %v", tt.format, err)
			}

			got, err := parse(gjson.Parse(tt.value))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parsed %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJSONDateBadPattern(t *testing.T) {
	if _, err := newJSONDateParser("%U"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestHTMLDateAutodetect(t *testing.T) {
	parse, err := newHTMLDateParser("")
	if err != nil {
		t.Fatalf("newHTMLDateParser() error: %v", err)
	}

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "bare date at midnight",
			value: "2022-05-15",
			want:  time.Date(2022, time.May, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "datetime with t separator",
			value: "2015-09-05T23:56:04",
			want:  time.Date(2015, time.September, 5, 23, 56, 4, 0, time.UTC),
		},
		{
			name:  "datetime with space separator",
			value: "2015-09-05 23:56:04",
			want:  time.Date(2015, time.September, 5, 23, 56, 4, 0, time.UTC),
		},
		{
			name:  "rfc3339 with offset",
			value: "2022-09-16T12:00:00+09:00",
			want:  time.Date(2022, time.September, 16, 3, 0, 0, 0, time.UTC),
		},
		{
			name:  "surrounding whitespace trimmed",
			value: "  2022-05-15\n",
			want:  time.Date(2022, time.May, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "wordy date needs a pattern",
			value:   "June 3, 2022",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parse(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parsed %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTMLDatePattern(t *testing.T) {
	parse, err := newHTMLDateParser("%B %-d, %Y")
	if err != nil {
		t.Fatalf("newHTMLDateParser() error: %v", err)
	}

	got, err := parse("June 3, 2022")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2022, time.June, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parsed %v, want %v", got, want)
	}

	if _, err := parse("03/06/2022"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestHTMLDateBadPattern(t *testing.T) {
	if _, err := newHTMLDateParser("%U"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
