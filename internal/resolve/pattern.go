package resolve

import (
	"regexp"
	"strings"

	"github.com/docforge/docforge/internal/model"
)

// patternWindow bounds how much text around the anchor the regex runs over.
const patternWindow = 500

// resolvePattern anchors on searchText within text blocks (falling back to
// the full text) and applies the rule's single-capture-group regex on the
// window following the anchor. Zero matches yield nil, never an error.
func resolvePattern(loc model.Location, doc *model.DocumentModel) any {
	re := regexp.MustCompile(loc.Pattern) // compiled once during validation
	anchor := strings.ToLower(loc.SearchText)

	for _, tb := range doc.TextBlocks {
		if v := captureAfterAnchor(re, tb.Text, anchor); v != "" {
			return v
		}
	}
	if doc.FullText != "" {
		if v := captureAfterAnchor(re, doc.FullText, anchor); v != "" {
			return v
		}
	}
	return nil
}

func captureAfterAnchor(re *regexp.Regexp, text, anchor string) string {
	idx := strings.Index(strings.ToLower(text), anchor)
	if idx < 0 {
		return ""
	}
	end := idx + len(anchor) + patternWindow
	if end > len(text) {
		end = len(text)
	}
	if m := re.FindStringSubmatch(text[idx:end]); len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
