package resolve

import (
	"strings"

	"github.com/docforge/docforge/constants"
	"github.com/docforge/docforge/internal/model"
)

// resolvePosition collects text blocks on the rule's page that fall inside
// (or overlap at least half their own area with) the rule's bounding box,
// concatenated in document order.
func resolvePosition(loc model.Location, doc *model.DocumentModel) any {
	box := *loc.BoundingBox
	page := *loc.Page

	var parts []string
	for _, tb := range doc.TextBlocks {
		if tb.Page != page {
			continue
		}
		area := tb.BoundingBox.Area()
		if area <= 0 {
			continue
		}
		if tb.BoundingBox.Intersection(box)/area >= constants.MinBoxOverlap {
			if text := strings.TrimSpace(tb.Text); text != "" {
				parts = append(parts, text)
			}
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return strings.Join(parts, " ")
}
