package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"manga_bot/internal/model"
)

// parseJSONInHTML handles pages that embed their chapter list as a JSON
// document inside a script tag. The tag is located by the chapters
// selector and its text content is handed to the json parser.
func parseJSONInHTML(target model.Target, body string) ([]model.Chapter, error) {
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

	script := doc.FindMatcher(sel).First()
	if script.Length() == 0 {
		return nil, fmt.Errorf("target %q: no element for selector %q", target.Name, tags.ChaptersTag)
	}

	return parseJSON(target, script.Text())
}
