package resolve

import (
	"regexp"
	"strings"

	"github.com/docforge/docforge/internal/model"
)

// resolveKeyValue returns the value of the first pair whose key matches
// keyName exactly (case-insensitive) or keyPattern as a regex. Pairs are
// scanned in document order.
func resolveKeyValue(loc model.Location, doc *model.DocumentModel) any {
	var re *regexp.Regexp
	if loc.KeyPattern != "" {
		// already compiled once during location validation
		re = regexp.MustCompile("(?i)" + loc.KeyPattern)
	}

	for _, kv := range doc.KeyValuePairs {
		key := strings.TrimSpace(kv.Key)
		if loc.KeyName != "" && strings.EqualFold(key, strings.TrimSpace(loc.KeyName)) {
			return kv.Value
		}
		if re != nil && re.MatchString(key) {
			return kv.Value
		}
	}
	return nil
}
