// Package textparse decomposes raw channel post text into the display
// fields stored alongside a post (title, paragraph, hashtags).
package textparse

import (
	"regexp"
	"strings"
)

const (
	// DefaultTitle is used when a post carries no usable text.
	DefaultTitle = "Untitled Post"

	maxTitleLen     = 100
	maxParagraphLen = 500
)

// hashtagPattern matches a # followed by word characters, including the
// Cyrillic alphabet used by the source channel.
var hashtagPattern = regexp.MustCompile(`#[\wа-яА-ЯёЁ]+`)

// ExtractHashtags returns the lower-cased, de-duplicated hashtags found in
// text, without the leading #. Order follows first occurrence.
func ExtractHashtags(text string) []string {
	matches := hashtagPattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(strings.TrimPrefix(m, "#"))
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// Decompose splits raw post text into a title and a paragraph.
//
// Hashtags are stripped first. The first non-empty line becomes the title,
// truncated to 100 characters with an ellipsis. The remaining lines, joined
// by a single space, become the paragraph, truncated to 500 characters. When
// there is only one line and it was longer than the truncated title, the
// remainder of that line becomes the paragraph.
func Decompose(text string) (title, paragraph string) {
	if text == "" {
		return DefaultTitle, ""
	}

	stripped := strings.TrimSpace(hashtagPattern.ReplaceAllString(text, ""))

	var lines []string
	for _, line := range strings.Split(stripped, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return DefaultTitle, ""
	}

	first := []rune(lines[0])
	title = lines[0]
	if len(first) > maxTitleLen {
		title = string(first[:maxTitleLen-3]) + "..."
	}

	paragraph = strings.TrimSpace(strings.Join(lines[1:], " "))
	if paragraph == "" && len(first) > len([]rune(title)) {
		paragraph = strings.TrimSpace(string(first[len([]rune(title)):]))
	}
	if runes := []rune(paragraph); len(runes) > maxParagraphLen {
		paragraph = string(runes[:maxParagraphLen-3]) + "..."
	}

	return title, paragraph
}
