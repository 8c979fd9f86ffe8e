package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxTitleLen = 100

// ParseTitleArg extracts a manga title from a command argument string.
// Surrounding and repeated inner whitespace is collapsed.
func ParseTitleArg(args string) (string, error) {
	title := strings.Join(strings.Fields(args), " ")
	if title == "" {
		return "", fmt.Errorf("manga title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", fmt.Errorf("title is too long (max %d characters)", maxTitleLen)
	}
	return title, nil
}
