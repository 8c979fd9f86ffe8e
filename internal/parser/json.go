package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"manga_bot/internal/model"
)

// parseJSON extracts chapters from a JSON body. Elements matching a skip
// condition or failing any field extraction are dropped; failing to
// locate the chapters array at all fails the parse.
func parseJSON(target model.Target, body string) ([]model.Chapter, error) {
	keys := target.Keys
	if keys == nil {
		return nil, fmt.Errorf("target %q has no parse keys", target.Name)
	}
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("target %q: invalid json body", target.Name)
	}

	list := gjson.Get(body, keys.Chapters)
	if !list.Exists() {
		return nil, fmt.Errorf("target %q: no value at chapters path %q", target.Name, keys.Chapters)
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("target %q: chapters path %q is not an array", target.Name, keys.Chapters)
	}

	parseDate, err := newJSONDateParser(keys.DateFormat)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", target.Name, err)
	}

	var chapters []model.Chapter
	for _, el := range list.Array() {
		if matchesSkip(el, keys.Skip) {
			continue
		}
		ch, err := assembleJSONChapter(target, el, parseDate)
		if err != nil {
			continue
		}
		chapters = append(chapters, ch)
	}

	return finalize(target, chapters), nil
}

func assembleJSONChapter(target model.Target, el gjson.Result, parseDate dateParser) (model.Chapter, error) {
	keys := target.Keys

	number, err := joinValues(el, keys.Number)
	if err != nil {
		return model.Chapter{}, err
	}
	title, err := joinValues(el, keys.Title)
	if err != nil {
		return model.Chapter{}, err
	}

	dateVal := el.Get(keys.Date)
	if !dateVal.Exists() {
		return model.Chapter{}, fmt.Errorf("no value at date path %q", keys.Date)
	}
	date, err := parseDate(dateVal)
	if err != nil {
		return model.Chapter{}, err
	}

	urlVal := el.Get(keys.URL)
	if !urlVal.Exists() {
		return model.Chapter{}, fmt.Errorf("no value at url path %q", keys.URL)
	}
	link, err := scalarString(urlVal)
	if err != nil {
		return model.Chapter{}, err
	}

	return model.Chapter{
		Manga:  target.Name,
		Number: number,
		Title:  title,
		Date:   date,
		URL:    resolveLink(target, link),
	}, nil
}

// matchesSkip reports whether any skip condition matches: the element
// has a value at the condition's path and it equals the expected value.
// Elements without the path are kept.
func matchesSkip(el gjson.Result, skip map[string]any) bool {
	for path, want := range skip {
		v := el.Get(path)
		if !v.Exists() {
			continue
		}
		if skipEqual(v, want) {
			return true
		}
	}
	return false
}

func skipEqual(v gjson.Result, want any) bool {
	switch w := want.(type) {
	case string:
		return v.Type == gjson.String && v.Str == w
	case bool:
		if v.Type != gjson.True && v.Type != gjson.False {
			return false
		}
		return v.Bool() == w
	case int64:
		return v.Type == gjson.Number && v.Num == float64(w)
	case int:
		return v.Type == gjson.Number && v.Num == float64(w)
	case float64:
		return v.Type == gjson.Number && v.Num == w
	default:
		return false
	}
}

// joinValues reads every path and joins the non-empty values with a
// single space, keeping declaration order.
func joinValues(el gjson.Result, paths []string) (string, error) {
	parts := make([]string, 0, len(paths))
	for _, path := range paths {
		v := el.Get(path)
		if !v.Exists() {
			return "", fmt.Errorf("no value at path %q", path)
		}
		s, err := scalarString(v)
		if err != nil {
			return "", fmt.Errorf("path %q: %w", path, err)
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}

// scalarString renders a JSON string or integer as text.
func scalarString(v gjson.Result) (string, error) {
	switch v.Type {
	case gjson.String:
		return v.Str, nil
	case gjson.Number:
		if v.Num != math.Trunc(v.Num) {
			return "", fmt.Errorf("number %v is not an integer", v.Num)
		}
		return strconv.FormatInt(v.Int(), 10), nil
	default:
		return "", fmt.Errorf("value of type %s is neither string nor integer", v.Type)
	}
}
