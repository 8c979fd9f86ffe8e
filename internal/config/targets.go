package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"manga_bot/internal/model"
)

// targetsFile is the top-level shape of the targets TOML file.
type targetsFile struct {
	Targets []targetDecl `toml:"targets"`
}

type targetDecl struct {
	Name            string            `toml:"name"`
	Source          string            `toml:"source"`
	AscendingSource bool              `toml:"ascending_source"`
	Mode            string            `toml:"mode"`
	BaseURL         string            `toml:"baseUrl"`
	RequestHeaders  map[string]string `toml:"requestHeaders"`
	Delay           int               `toml:"delay"`
	Keys            *keysDecl         `toml:"keys"`
	Tags            *tagsDecl         `toml:"tags"`
}

type keysDecl struct {
	Chapters   string         `toml:"chapters"`
	Number     stringList     `toml:"number"`
	Title      stringList     `toml:"title"`
	Date       string         `toml:"date"`
	DateFormat string         `toml:"dateFormat"`
	URL        string         `toml:"url"`
	Skip       map[string]any `toml:"skip"`
}

type tagsDecl struct {
	ChaptersTag     string `toml:"chaptersTag"`
	NumberTag       string `toml:"numberTag"`
	NumberAttribute string `toml:"numberAttribute"`
	TitleTag        string `toml:"titleTag"`
	TitleAttribute  string `toml:"titleAttribute"`
	DateTag         string `toml:"dateTag"`
	DateAttribute   string `toml:"dateAttribute"`
	DateFormat      string `toml:"dateFormat"`
	URLTag          string `toml:"urlTag"`
	URLAttribute    string `toml:"urlAttribute"`
}

// stringList accepts either a single TOML string or an array of strings.
// Empty strings are dropped.
type stringList []string

// UnmarshalTOML implements toml.Unmarshaler.
func (s *stringList) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		if val != "" {
			*s = stringList{val}
		}
	case []any:
		for _, item := range val {
			str, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", item)
			}
			if str != "" {
				*s = append(*s, str)
			}
		}
	default:
		return fmt.Errorf("expected string or array of strings, got %T", v)
	}
	return nil
}

// LoadTargets reads and validates the target declarations from a TOML file.
func LoadTargets(path string) ([]model.Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading targets file: %w", err)
	}
	return parseTargets(data)
}

func parseTargets(data []byte) ([]model.Target, error) {
	var file targetsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing targets file: %w", err)
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets configured")
	}

	targets := make([]model.Target, 0, len(file.Targets))
	for i, decl := range file.Targets {
		target, err := buildTarget(decl)
		if err != nil {
			return nil, fmt.Errorf("target %d (%q): %w", i, decl.Name, err)
		}
		targets = append(targets, target)
	}
	return targets, nil
}

func buildTarget(d targetDecl) (model.Target, error) {
	var zero model.Target

	if d.Name == "" {
		return zero, fmt.Errorf("name is required")
	}
	if d.Source == "" {
		return zero, fmt.Errorf("source is required")
	}
	if d.Delay < 0 {
		return zero, fmt.Errorf("delay must not be negative")
	}

	mode := model.ParseMode(d.Mode)
	switch mode {
	case model.ModeRSS, model.ModeJSON, model.ModeHTML, model.ModeJSONInHTML:
	default:
		return zero, fmt.Errorf("invalid mode %q", d.Mode)
	}

	target := model.Target{
		Name:           d.Name,
		Source:         d.Source,
		Ascending:      d.AscendingSource,
		Mode:           mode,
		BaseURL:        d.BaseURL,
		DelayDays:      d.Delay,
		RequestHeaders: d.RequestHeaders,
	}

	if mode == model.ModeJSON || mode == model.ModeJSONInHTML {
		keys, err := buildKeys(d.Keys)
		if err != nil {
			return zero, err
		}
		target.Keys = keys
	}
	if mode == model.ModeHTML || mode == model.ModeJSONInHTML {
		tags, err := buildTags(d.Tags)
		if err != nil {
			return zero, err
		}
		target.Tags = tags
	}

	return target, nil
}

func buildKeys(d *keysDecl) (*model.TargetKeys, error) {
	if d == nil {
		return nil, fmt.Errorf("keys are required for this mode")
	}
	if d.Chapters == "" {
		return nil, fmt.Errorf("keys.chapters is required")
	}
	if len(d.Number) == 0 {
		return nil, fmt.Errorf("keys.number is required")
	}
	if len(d.Title) == 0 {
		return nil, fmt.Errorf("keys.title is required")
	}
	if d.Date == "" {
		return nil, fmt.Errorf("keys.date is required")
	}
	if d.URL == "" {
		return nil, fmt.Errorf("keys.url is required")
	}
	return &model.TargetKeys{
		Chapters:   d.Chapters,
		Number:     d.Number,
		Title:      d.Title,
		Date:       d.Date,
		DateFormat: d.DateFormat,
		URL:        d.URL,
		Skip:       d.Skip,
	}, nil
}

func buildTags(d *tagsDecl) (*model.TargetTags, error) {
	if d == nil {
		return nil, fmt.Errorf("tags are required for this mode")
	}
	if d.ChaptersTag == "" {
		return nil, fmt.Errorf("tags.chaptersTag is required")
	}
	return &model.TargetTags{
		ChaptersTag:     d.ChaptersTag,
		NumberTag:       d.NumberTag,
		NumberAttribute: d.NumberAttribute,
		TitleTag:        d.TitleTag,
		TitleAttribute:  d.TitleAttribute,
		DateTag:         d.DateTag,
		DateAttribute:   d.DateAttribute,
		DateFormat:      d.DateFormat,
		URLTag:          d.URLTag,
		URLAttribute:    d.URLAttribute,
	}, nil
}
