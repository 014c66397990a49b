// Package normalize holds the string transforms applied to user input before
// it is persisted or compared.
package normalize

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Each rule consumes an optional leading quantity so the output always reads
// "<number> <unit>". Go regexp has no lookahead, so a trailing \b stands in
// for "not followed by another letter".
var (
	massPerVolume   = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)?\s*g/l\b`)
	volumePerVolume = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)?\s*m/l\b`)
	bareLiter       = regexp.MustCompile(`(?i)(\d+)\s*l\b`)
	bareGram        = regexp.MustCompile(`(?i)(\d+)\s*g\b`)
)

// DoseOrVolume rewrites shorthand unit notation into its long form:
// "g/l" -> "gr/ltr", "m/l" -> "ml/ltr", "5l" -> "5 ltr", "10g" -> "10 gram".
// The rules run in that order and the output never matches any of them
// again, so the transform is idempotent.
func DoseOrVolume(raw string) string {
	if raw == "" {
		return raw
	}

	result := strings.TrimSpace(raw)
	result = replaceRatio(massPerVolume, result, "gr/ltr")
	result = replaceRatio(volumePerVolume, result, "ml/ltr")
	result = bareLiter.ReplaceAllString(result, "${1} ltr")
	result = bareGram.ReplaceAllString(result, "${1} gram")
	return result
}

func replaceRatio(re *regexp.Regexp, input, unit string) string {
	return re.ReplaceAllStringFunc(input, func(match string) string {
		groups := re.FindStringSubmatch(match)
		if len(groups) > 1 && groups[1] != "" {
			return groups[1] + " " + unit
		}
		// Keep whatever separated the unit from the preceding word.
		if strings.HasPrefix(match, " ") {
			return " " + unit
		}
		return unit
	})
}

// GroupKey returns the lowercased first word of a category, so "Tomat Ceri"
// and "tomat" share the key "tomat".
func GroupKey(category string) string {
	fields := strings.Fields(strings.ToLower(category))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.Indonesian)
)

// Compare orders two strings the way the dashboard sorts labels.
func Compare(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

// DedupeFold trims values, drops empties, keeps the first-seen casing for
// each case-insensitive key and returns the survivors sorted.
func DedupeFold(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}

	SortStrings(out)
	return out
}

// SortStrings sorts values in place with Compare.
func SortStrings(values []string) {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	collator.SortStrings(values)
}
