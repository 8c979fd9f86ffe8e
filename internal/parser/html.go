package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"manga_bot/internal/model"
)

// parseHTML extracts chapters from an HTML page by CSS selectors. A
// chapter element missing a configured field is dropped; an unusable
// chapters selector fails the parse.
func parseHTML(target model.Target, body string) ([]model.Chapter, error) {
	tags := target.Tags
	if tags == nil {
		return nil, fmt.Errorf("target %q has no parse tags", target.Name)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("target %q: parse html: %w", target.Name, err)
	}

	sel, err := compileSelector(tags.ChaptersTag)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", target.Name, err)
	}

	parseDate, err := newHTMLDateParser(tags.DateFormat)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", target.Name, err)
	}

	var chapters []model.Chapter
	doc.FindMatcher(sel).Each(func(_ int, el *goquery.Selection) {
		ch, err := assembleHTMLChapter(target, el, parseDate)
		if err != nil {
			return
		}
		chapters = append(chapters, ch)
	})

	return finalize(target, chapters), nil
}

func assembleHTMLChapter(target model.Target, el *goquery.Selection, parseDate func(string) (time.Time, error)) (model.Chapter, error) {
	tags := target.Tags

	number, err := fieldValue(el, tags.NumberTag, tags.NumberAttribute)
	if err != nil {
		return model.Chapter{}, err
	}
	title, err := fieldValue(el, tags.TitleTag, tags.TitleAttribute)
	if err != nil {
		return model.Chapter{}, err
	}

	// Pages that show no release date announce as of the fetch.
	date := time.Now().UTC()
	if tags.DateTag != "" || tags.DateAttribute != "" {
		raw, err := fieldValue(el, tags.DateTag, tags.DateAttribute)
		if err != nil {
			return model.Chapter{}, err
		}
		date, err = parseDate(raw)
		if err != nil {
			return model.Chapter{}, err
		}
	}

	link, err := fieldValue(el, tags.URLTag, tags.URLAttribute)
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

// fieldValue selects an optional sub-element and reads an attribute or,
// with no attribute configured, the element's text content.
func fieldValue(el *goquery.Selection, tag, attribute string) (string, error) {
	node := el
	if tag != "" {
		sel, err := compileSelector(tag)
		if err != nil {
			return "", err
		}
		node = el.FindMatcher(sel).First()
		if node.Length() == 0 {
			return "", fmt.Errorf("no element for selector %q", tag)
		}
	}
	if attribute != "" {
		v, ok := node.Attr(attribute)
		if !ok {
			return "", fmt.Errorf("no attribute %q on element", attribute)
		}
		return v, nil
	}
	return node.Text(), nil
}

func compileSelector(s string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(s)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", s, err)
	}
	return sel, nil
}
